package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-sign-server/internal/audit"
	"github.com/a3tai/pdf-sign-server/internal/sign"
	"github.com/a3tai/pdf-sign-server/internal/sourcedoc"
	"github.com/a3tai/pdf-sign-server/internal/storage"
	"github.com/a3tai/pdf-sign-server/internal/testutil"
)

type serverFixture struct {
	handler http.Handler
	audits  *audit.SQLiteStore
}

func newServerFixture(t *testing.T, withSource bool) *serverFixture {
	t.Helper()
	dir := t.TempDir()

	sourcePath := filepath.Join(dir, "source.pdf")
	if withSource {
		testutil.WritePDF(t, dir, 2)
	}
	source := sourcedoc.NewProvider(sourcePath, 10*1024*1024)

	publicDir := filepath.Join(dir, "public")
	artifacts, err := storage.NewStore(filepath.Join(dir, "signed"), publicDir)
	require.NoError(t, err)

	audits, err := audit.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { audits.Close() })

	pipeline := sign.NewPipeline(source, artifacts, audits, zap.NewNop())
	srv := NewServer(pipeline, audits, artifacts, publicDir, zap.NewNop())

	return &serverFixture{handler: srv.Handler(), audits: audits}
}

func (fx *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	return rec
}

func signBody(fields []map[string]any) map[string]any {
	return map[string]any{
		"pdfId":  "doc1",
		"fields": fields,
	}
}

func textFieldBody(page int) map[string]any {
	return map[string]any{
		"type":        "text",
		"coordinates": map[string]any{"x": 10, "y": 10, "width": 100, "height": 20, "page": page},
		"value":       "Alice",
	}
}

func TestHandleSign_Success(t *testing.T) {
	fx := newServerFixture(t, true)

	rec := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{textFieldBody(1)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp signResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Regexp(t, `^/signed/signed_\d+\.pdf$`, resp.SignedPDFURL)
	assert.Regexp(t, `^/api/documents/signed_\d+\.pdf/download$`, resp.DownloadURL)
	assert.Len(t, resp.OriginalHash, 64)
	assert.Len(t, resp.SignedHash, 64)
	assert.NotEqual(t, resp.OriginalHash, resp.SignedHash)
	assert.NotEmpty(t, resp.AuditID)
}

func TestHandleSign_MissingPDFID(t *testing.T) {
	fx := newServerFixture(t, true)

	rec := fx.do(t, http.MethodPost, "/api/sign", map[string]any{
		"fields": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSign_InvalidCoordinates(t *testing.T) {
	fx := newServerFixture(t, true)

	bad := map[string]any{
		"type":        "text",
		"coordinates": map[string]any{"x": -5, "y": 10, "width": 100, "height": 20, "page": 1},
		"value":       "x",
	}
	rec := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{bad}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "error")
}

func TestHandleSign_MalformedJSON(t *testing.T) {
	fx := newServerFixture(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/sign", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSign_SourceMissing(t *testing.T) {
	fx := newServerFixture(t, false)

	rec := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDownload(t *testing.T) {
	fx := newServerFixture(t, true)

	signed := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{textFieldBody(1)}))
	require.Equal(t, http.StatusOK, signed.Code)

	var resp signResponse
	require.NoError(t, json.Unmarshal(signed.Body.Bytes(), &resp))

	rec := fx.do(t, http.MethodGet, resp.DownloadURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `attachment; filename="?document_signed_\d+\.pdf"?`,
		rec.Header().Get("Content-Disposition"))
	assert.NotZero(t, rec.Body.Len())
}

func TestHandleDownload_Missing(t *testing.T) {
	fx := newServerFixture(t, true)

	rec := fx.do(t, http.MethodGet, "/api/documents/signed_404.pdf/download", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticPublicServing(t *testing.T) {
	fx := newServerFixture(t, true)

	signed := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{textFieldBody(1)}))
	require.Equal(t, http.StatusOK, signed.Code)

	var resp signResponse
	require.NoError(t, json.Unmarshal(signed.Body.Bytes(), &resp))

	rec := fx.do(t, http.MethodGet, resp.SignedPDFURL, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, rec.Body.Len())
}

func TestHandleAuditByID(t *testing.T) {
	fx := newServerFixture(t, true)

	signed := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{textFieldBody(2)}))
	require.Equal(t, http.StatusOK, signed.Code)

	var resp signResponse
	require.NoError(t, json.Unmarshal(signed.Body.Bytes(), &resp))

	rec := fx.do(t, http.MethodGet, "/api/audit/"+resp.AuditID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got audit.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "doc1", got.PDFID)
	assert.Equal(t, resp.OriginalHash, got.OriginalHash)
	assert.Equal(t, 2, got.Metadata.PageCount)
}

func TestHandleAuditByID_NotFound(t *testing.T) {
	fx := newServerFixture(t, true)

	rec := fx.do(t, http.MethodGet, "/api/audit/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAuditsByHash(t *testing.T) {
	fx := newServerFixture(t, true)

	signed := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{textFieldBody(1)}))
	require.Equal(t, http.StatusOK, signed.Code)

	var resp signResponse
	require.NoError(t, json.Unmarshal(signed.Body.Bytes(), &resp))

	rec := fx.do(t, http.MethodGet, "/api/audit/hash/"+resp.SignedHash, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []audit.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, resp.SignedHash, got[0].SignedHash)
}

func TestHandleAuditsByHash_EmptyIsJSONArray(t *testing.T) {
	fx := newServerFixture(t, true)

	rec := fx.do(t, http.MethodGet, "/api/audit/hash/unknown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandleRecentAudits(t *testing.T) {
	fx := newServerFixture(t, true)

	for i := 0; i < 3; i++ {
		rec := fx.do(t, http.MethodPost, "/api/sign", signBody([]map[string]any{textFieldBody(1)}))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := fx.do(t, http.MethodGet, "/api/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []audit.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 3)

	limited := fx.do(t, http.MethodGet, "/api/audit?limit=2", nil)
	require.Equal(t, http.StatusOK, limited.Code)

	var capped []audit.Record
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &capped))
	assert.Len(t, capped, 2)
}

func TestHandleRecentAudits_Empty(t *testing.T) {
	fx := newServerFixture(t, true)

	rec := fx.do(t, http.MethodGet, "/api/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
