package pdfdoc

import (
	"strings"
	"testing"
)

func TestContentWriter_Operators(t *testing.T) {
	cw := NewContentWriter()
	cw.SaveState()
	cw.SetLineWidth(1)
	cw.SetFillRGB(1, 1, 1)
	cw.SetStrokeRGB(0, 0, 0)
	cw.Rect(10, 20, 100, 50)
	cw.FillStroke()
	cw.RestoreState()

	got := string(cw.Bytes())
	for _, want := range []string{
		"q\n",
		"1.00 w\n",
		"1.00 1.00 1.00 rg\n",
		"0.00 0.00 0.00 RG\n",
		"10.00 20.00 100.00 50.00 re\n",
		"B\n",
		"Q\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("content stream missing %q:\n%s", want, got)
		}
	}
}

func TestContentWriter_Text(t *testing.T) {
	cw := NewContentWriter()
	cw.Text("FSHelv", 10, 12, 34, "Hello")

	got := string(cw.Bytes())
	for _, want := range []string{
		"BT\n",
		"/FSHelv 10.00 Tf\n",
		"12.00 34.00 Td\n",
		"(Hello) Tj\n",
		"ET\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text block missing %q:\n%s", want, got)
		}
	}
}

func TestContentWriter_TextEscapesDelimiters(t *testing.T) {
	cw := NewContentWriter()
	cw.Text("F", 10, 0, 0, `a(b)c\d`)

	got := string(cw.Bytes())
	if !strings.Contains(got, `(a\(b\)c\\d) Tj`) {
		t.Errorf("delimiters not escaped:\n%s", got)
	}
}

func TestContentWriter_Image(t *testing.T) {
	cw := NewContentWriter()
	cw.Image("FSIm1", 5, 6, 70, 80)

	got := string(cw.Bytes())
	for _, want := range []string{
		"q\n",
		"70.00 0.00 0.00 80.00 5.00 6.00 cm\n",
		"/FSIm1 Do\n",
		"Q\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("image block missing %q:\n%s", want, got)
		}
	}
}

func TestContentWriter_CircleStartsAtRightmostPoint(t *testing.T) {
	cw := NewContentWriter()
	cw.Circle(100, 100, 10)

	got := string(cw.Bytes())
	if !strings.Contains(got, "110.00 100.00 m\n") {
		t.Errorf("circle path should start at (cx+r, cy):\n%s", got)
	}
	if strings.Count(got, " c\n") != 4 {
		t.Errorf("circle should consist of four Bézier segments:\n%s", got)
	}
}
