package web

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"csvaudit/internal/logging"
	"csvaudit/internal/metrics"
	"csvaudit/internal/quality"
	"csvaudit/internal/storage"
	"csvaudit/internal/tabular"
)

// historyLimit caps how many past reports /history returns.
const historyLimit = 100

// uploadResponse is the body returned by POST /upload. For files that
// could not be parsed at all, Report is absent and ReadError says why;
// the upload itself still succeeds and is recorded.
type uploadResponse struct {
	Message     string `json:"message"`
	ReportID    string `json:"report_id"`
	Filename    string `json:"filename"`
	AlreadySeen bool   `json:"already_seen"`
	ReadError   string `json:"read_error,omitempty"`
	*quality.Report
}

// handleUpload accepts a CSV file, runs the quality audit, persists the
// report, and returns it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			metrics.RecordRun("rejected", time.Since(start))
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
			return
		}
		metrics.RecordRun("rejected", time.Since(start))
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		metrics.RecordRun("rejected", time.Since(start))
		writeError(w, http.StatusBadRequest, "only .csv files are accepted")
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		if errors.Is(err, ErrTooManyAudits) {
			metrics.RecordRun("rejected", time.Since(start))
			w.Header().Set("Retry-After", "10")
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	defer s.limiter.Release()

	s.auditAndRespond(w, r, file, filename, start)
}

// auditAndRespond runs the parse-audit-persist pipeline once an upload
// slot is held.
func (s *Server) auditAndRespond(w http.ResponseWriter, r *http.Request, file multipart.File, filename string, start time.Time) {
	ctx := r.Context()
	logger := logging.FromContext(ctx).With("filename", filename)

	rec := storage.ReportRecord{
		ID:         uuid.NewString(),
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
	}

	parsed, readErr := tabular.Read(file, s.cfg.Upload.MaxRows)
	if readErr != nil {
		if errors.Is(readErr, tabular.ErrTooManyRows) {
			metrics.RecordRun("rejected", time.Since(start))
			writeError(w, http.StatusRequestEntityTooLarge, "file has too many rows")
			return
		}

		// A malformed file is a result, not a failure: record it so the
		// history shows the attempt, and tell the client what went wrong.
		rec.ReadError = readErr.Error()
		if err := s.repo.Save(ctx, rec); err != nil {
			logger.Error("save report failed", "error", err)
			writeError(w, http.StatusInternalServerError, "could not store report")
			return
		}

		metrics.RecordRun("read_error", time.Since(start))
		logger.Info("upload unreadable", "report_id", rec.ID, "read_error", rec.ReadError)
		writeJSON(w, http.StatusOK, uploadResponse{
			Message:   "file received but could not be parsed",
			ReportID:  rec.ID,
			Filename:  filename,
			ReadError: rec.ReadError,
		})
		return
	}

	report, err := s.engine.Run(parsed.Table)
	if err != nil {
		logger.Error("audit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "audit failed")
		return
	}

	seen, err := s.repo.SeenHash(ctx, parsed.ContentHash)
	if err != nil {
		logger.Error("hash lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store report")
		return
	}

	rec.ContentHash = parsed.ContentHash
	rec.RowCount = report.RowCount
	rec.ColumnCount = report.ColumnCount
	rec.Report = report
	if err := s.repo.Save(ctx, rec); err != nil {
		logger.Error("save report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store report")
		return
	}

	metrics.RecordRun("ok", time.Since(start))
	metrics.RecordRows(int64(report.RowCount))
	for kind, n := range report.Summary {
		metrics.RecordIssues(string(kind), int64(n))
	}

	logger.Info("audit complete",
		"report_id", rec.ID,
		"rows", report.RowCount,
		"columns", report.ColumnCount,
		"issues", report.TotalIssues(),
		"already_seen", seen,
	)

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:     "audit complete",
		ReportID:    rec.ID,
		Filename:    filename,
		AlreadySeen: seen,
		Report:      report,
	})
}

// historyEntry is one row of the /history response.
type historyEntry struct {
	ReportID    string                    `json:"report_id"`
	Filename    string                    `json:"filename"`
	UploadedAt  time.Time                 `json:"uploaded_at"`
	RowCount    int                       `json:"row_count"`
	ColumnCount int                       `json:"column_count"`
	TotalIssues int                       `json:"total_issues"`
	Summary     map[quality.IssueKind]int `json:"summary,omitempty"`
	ReadError   string                    `json:"read_error,omitempty"`
}

// handleHistory returns the most recent audit runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.repo.List(r.Context(), historyLimit)
	if err != nil {
		logging.FromContext(r.Context()).Error("list reports failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}

	entries := make([]historyEntry, 0, len(recs))
	for _, rec := range recs {
		e := historyEntry{
			ReportID:    rec.ID,
			Filename:    rec.Filename,
			UploadedAt:  rec.UploadedAt,
			RowCount:    rec.RowCount,
			ColumnCount: rec.ColumnCount,
			ReadError:   rec.ReadError,
		}
		if rec.Report != nil {
			e.Summary = rec.Report.Summary
			e.TotalIssues = rec.Report.TotalIssues()
		}
		entries = append(entries, e)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports": entries,
		"count":   len(entries),
	})
}

// handleReport returns one stored report with full issue detail.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.repo.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("get report failed", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load report")
		return
	}

	resp := uploadResponse{
		Message:   "audit complete",
		ReportID:  rec.ID,
		Filename:  rec.Filename,
		ReadError: rec.ReadError,
		Report:    rec.Report,
	}
	if rec.ReadError != "" {
		resp.Message = "file received but could not be parsed"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth reports liveness plus current audit load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"active_audits": s.limiter.Active(),
	})
}
