package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conciliar-dev/conciliar/internal/history"
	"github.com/conciliar-dev/conciliar/internal/id"
	"github.com/conciliar-dev/conciliar/internal/logger"
	"github.com/conciliar-dev/conciliar/internal/pipeline"
	"github.com/conciliar-dev/conciliar/internal/report"
)

// Upload form fields.
const (
	FieldBank   = "extrato"
	FieldSystem = "sistema"
)

// XLSXContentType is the media type of the report workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Client-facing messages.
const (
	msgMissingFiles = "Você precisa enviar os dois arquivos: extrato e sistema"
	msgBadType      = "Apenas arquivos Excel (.xlsx) ou CSV (.csv) são permitidos"
	msgTooLarge     = "Arquivo excede o tamanho máximo permitido"
	msgProcessing   = "Erro ao processar"
)

// multipartOverhead allows for form boundaries and headers on top of the two
// files.
const multipartOverhead = 1 << 20

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "API funcionando!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReconcile handles POST /api/conciliar.
func (s *Server) handleReconcile(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*s.config.MaxUploadBytes+multipartOverhead)

	bankHdr, bankErr := c.FormFile(FieldBank)
	systemHdr, systemErr := c.FormFile(FieldSystem)
	if isTooLarge(bankErr) || isTooLarge(systemErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
		return
	}
	if bankErr != nil || systemErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFiles})
		return
	}

	for _, h := range []*multipart.FileHeader{bankHdr, systemHdr} {
		if !s.service.Supports(h.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgBadType})
			return
		}
		if h.Size > s.config.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgTooLarge})
			return
		}
	}

	dir, err := os.MkdirTemp("", "conciliar-upload-*")
	if err != nil {
		s.processingError(c, fmt.Errorf("creating upload dir: %w", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("removing upload dir")
		}
	}()

	bankPath := filepath.Join(dir, FieldBank+strings.ToLower(filepath.Ext(bankHdr.Filename)))
	systemPath := filepath.Join(dir, FieldSystem+strings.ToLower(filepath.Ext(systemHdr.Filename)))
	if err := c.SaveUploadedFile(bankHdr, bankPath); err != nil {
		s.processingError(c, fmt.Errorf("saving %s: %w", FieldBank, err))
		return
	}
	if err := c.SaveUploadedFile(systemHdr, systemPath); err != nil {
		s.processingError(c, fmt.Errorf("saving %s: %w", FieldSystem, err))
		return
	}

	out, err := s.service.Run(c.Request.Context(), pipeline.RunParams{
		BankFile:   bankPath,
		SystemFile: systemPath,
		BankName:   filepath.Base(bankHdr.Filename),
		SystemName: filepath.Base(systemHdr.Filename),
		Origin:     history.OriginAPI,
	})
	if err != nil {
		s.processingError(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, out.JSON())
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, out.Sheets()); err != nil {
		s.processingError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id.ReportFileName(out.RunID)))
	c.Header("X-Run-Id", out.RunID)
	c.Data(http.StatusOK, XLSXContentType, buf.Bytes())
}

func (s *Server) processingError(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context())
	log.Error().Err(err).Msg("reconciliation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgProcessing, "message": err.Error()})
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// handleListRuns handles GET /api/runs.
func (s *Server) handleListRuns(c *gin.Context) {
	limit := history.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Msg("listing runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an internal error occurred"})
		return
	}

	resp := RunListResponse{Runs: make([]RunResponse, 0, len(runs)), Count: len(runs)}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, toRunResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// handleGetRun handles GET /api/runs/:id.
func (s *Server) handleGetRun(c *gin.Context) {
	runID, err := id.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}

	run, err := s.runs.Get(c.Request.Context(), runID)
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Str("run_id", runID).Msg("loading run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(*run))
}
