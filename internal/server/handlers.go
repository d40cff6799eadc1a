package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raaihank/doc-redactor/internal/audit"
	"github.com/raaihank/doc-redactor/internal/cache"
	"github.com/raaihank/doc-redactor/internal/document"
	"github.com/raaihank/doc-redactor/internal/events"
	"github.com/raaihank/doc-redactor/internal/logger"
	"go.uber.org/zap"
)

const (
	multipartMemory = 8 << 20
	maxTextBytes    = 1 << 20
)

// redactPDFResponse carries per-page counts in RedactionStats and the
// document totals in TotalRedactions. RedactionCount is their sum.
type redactPDFResponse struct {
	Success         bool             `json:"success"`
	RedactedText    []string         `json:"redacted_text"`
	RedactionStats  []map[string]int `json:"redaction_stats"`
	TotalRedactions map[string]int   `json:"total_redactions"`
	TotalPages      int              `json:"total_pages"`
	RedactionCount  int              `json:"redaction_count"`
}

type redactTextRequest struct {
	Text string `json:"text"`
}

type redactTextResponse struct {
	Success         bool           `json:"success"`
	RedactedText    string         `json:"redacted_text"`
	RedactionStats  map[string]int `json:"redaction_stats"`
	TotalRedactions int            `json:"total_redactions"`
}

type statsReporter interface {
	Stats(ctx context.Context) (*cache.Stats, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleRedactPDF accepts a multipart upload in field "file" and returns
// the redacted text and counts of every page with document-level totals
func (s *Server) handleRedactPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := requestIDFrom(r.Context())
	log := s.logger.WithRequestID(requestID)

	maxBytes := int64(s.config.Server.MaxUploadMB) << 20
	if r.ContentLength > maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d MB upload limit", s.config.Server.MaxUploadMB))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB upload limit", s.config.Server.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "File must be a PDF")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("Failed to read upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	hash := cache.HashDocument(data)
	result, cacheHit := s.cachedResult(r.Context(), hash)

	if !cacheHit {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.Server.ProcessingTimeout)
		pages, err := s.extractor.ExtractBytes(ctx, data)
		cancel()
		if err != nil {
			log.Warn("PDF extraction failed",
				zap.String("filename", header.Filename),
				zap.Error(err))
			if errors.Is(err, context.DeadlineExceeded) {
				writeError(w, http.StatusGatewayTimeout, "Processing timed out")
				return
			}
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Error processing PDF: %v", err))
			return
		}

		processed := s.processor.ProcessDocument(pages)
		result = &processed

		if s.cache != nil {
			if err := s.cache.Set(r.Context(), hash, result); err != nil {
				log.Warn("Failed to cache result", zap.Error(err))
			}
		}
	}

	total := result.Total()
	s.documents.Add(1)
	s.redactions.Add(int64(total))

	log.Info("Document redacted",
		zap.String("filename", header.Filename),
		zap.String("document_hash", hash),
		zap.Int("pages", result.PageCount),
		zap.Int("total_redactions", total),
		zap.Bool("cache_hit", cacheHit),
		zap.Duration("duration", time.Since(start)))

	s.recordAudit(r.Context(), log, &audit.Record{
		DocumentHash:    hash,
		Filename:        header.Filename,
		TotalPages:      result.PageCount,
		TotalRedactions: audit.Counts(result.TotalCounts),
		CacheHit:        cacheHit,
	})

	if s.hub != nil {
		s.hub.BroadcastDocument(events.DocumentRedactedEvent{
			RequestID:       requestID,
			Filename:        header.Filename,
			DocumentHash:    hash,
			TotalPages:      result.PageCount,
			TotalRedactions: total,
			Counts:          result.TotalCounts,
			CacheHit:        cacheHit,
			ProcessingMS:    float64(time.Since(start).Microseconds()) / 1000,
		})
	}

	writeJSON(w, http.StatusOK, redactPDFResponse{
		Success:         true,
		RedactedText:    result.RedactedTexts(),
		RedactionStats:  result.PageCounts(),
		TotalRedactions: result.TotalCounts,
		TotalPages:      result.PageCount,
		RedactionCount:  total,
	})
}

// handleRedactText redacts a single JSON text block
func (s *Server) handleRedactText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTextBytes)

	var req redactTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Expected a JSON body with a text field")
		return
	}

	result := s.redactor.Redact(req.Text)
	total := result.Total()
	s.redactions.Add(int64(total))

	writeJSON(w, http.StatusOK, redactTextResponse{
		Success:         true,
		RedactedText:    result.RedactedText,
		RedactionStats:  result.Counts,
		TotalRedactions: total,
	})
}

// handleAudit lists recent audit records
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusNotFound, "Audit log is not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.logger.WithRequestID(requestIDFrom(r.Context())).Error("Failed to load audit records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load audit records")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":                "doc-redactor",
		"version":             Version,
		"categories":          s.catalog.Labels(),
		"cache_enabled":       s.cache != nil,
		"audit_enabled":       s.audit != nil,
		"events_enabled":      s.hub != nil,
		"documents_processed": s.documents.Load(),
		"uptime":              time.Since(s.startedAt).Round(time.Second).String(),
	}

	if reporter, ok := s.cache.(statsReporter); ok {
		if stats, err := reporter.Stats(r.Context()); err == nil {
			info["cache"] = stats
		} else {
			s.logger.Debug("Cache stats unavailable", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) cachedResult(ctx context.Context, hash string) (*document.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, hash)
}

func (s *Server) recordAudit(ctx context.Context, log *logger.Logger, record *audit.Record) {
	if s.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.audit.Record(ctx, record); err != nil {
		log.Warn("Failed to write audit record", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
