package web

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-sign-server/internal/audit"
	"github.com/a3tai/pdf-sign-server/internal/sign"
)

// signResponse is the success payload of the sign operation.
type signResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SignedPDFURL string `json:"signedPdfUrl"`
	OriginalHash string `json:"originalHash"`
	SignedHash   string `json:"signedHash"`
	AuditID      string `json:"auditId"`
	DownloadURL  string `json:"downloadUrl"`
}

func (s *Server) handleSign(c *gin.Context) {
	var req sign.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	res, err := s.pipeline.Sign(c.Request.Context(), req)
	switch {
	case errors.Is(err, sign.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, sign.ErrSourceMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("signing failed", zap.String("pdf_id", req.PDFID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to sign document",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, signResponse{
		Success:      true,
		Message:      "Document signed successfully",
		SignedPDFURL: "/signed/" + res.SignedName,
		OriginalHash: res.OriginalHash,
		SignedHash:   res.SignedHash,
		AuditID:      res.AuditID,
		DownloadURL:  "/api/documents/" + res.SignedName + "/download",
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	name := c.Param("name")

	path, err := s.artifacts.Path(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "signed document not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggested := fmt.Sprintf("document_signed_%d.pdf", time.Now().UnixMilli())
	c.FileAttachment(path, suggested)
}

func (s *Server) handleAuditByID(c *gin.Context) {
	rec, err := s.audits.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit record not found"})
			return
		}
		s.logger.Error("audit lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit record"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleAuditsByHash(c *gin.Context) {
	recs, err := s.audits.FindByHash(c.Request.Context(), c.Param("hash"))
	if err != nil {
		s.logger.Error("audit hash lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit records"})
		return
	}
	if recs == nil {
		recs = []*audit.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) handleRecentAudits(c *gin.Context) {
	limit := recentAuditLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < recentAuditLimit {
			limit = n
		}
	}

	recs, err := s.audits.FindRecent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("recent audit lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit records"})
		return
	}
	if recs == nil {
		recs = []*audit.Record{}
	}
	c.JSON(http.StatusOK, recs)
}
