package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/runnerr0/rankscope/internal/analysis"
	"github.com/runnerr0/rankscope/internal/storage"
	"github.com/runnerr0/rankscope/internal/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// requestError is a client mistake in the form fields or upload.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

// handleAnalyze runs one pass over the uploaded file and returns the report
// as JSON. rows=false omits the filtered rows.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	report, source, err := s.analyzeUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	runID, err := s.save(r, source, report)
	if err != nil {
		s.writeError(w, err)
		return
	}

	withRows := r.FormValue("rows") != "false"
	w.Header().Set("X-Run-Id", runID)
	writeJSON(w, http.StatusOK, report.View(runID, withRows))
}

// handleExport runs one pass and returns the filtered table as a one-sheet
// xlsx attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	report, source, err := s.analyzeUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	runID, err := s.save(r, source, report)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.cfg.Export.XLSXFile))
	w.Header().Set("X-Run-Id", runID)
	if err := table.WriteXLSX(w, report.Filtered, s.cfg.Export.SheetName); err != nil {
		// Headers are already sent; all that is left is to log.
		s.log.Error("writing xlsx response", "run_id", runID, "error", err)
	}
}

// analyzeUpload reads the multipart upload and form parameters and runs the
// analysis. Absent criteria fields fall back to the configured defaults;
// present-but-empty fields are taken as given.
func (s *Server) analyzeUpload(w http.ResponseWriter, r *http.Request) (*analysis.Report, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, "", mbe
		}
		return nil, "", &requestError{msg: fmt.Sprintf("invalid multipart form: %v", err)}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", &requestError{msg: "no file uploaded (expected form field \"file\")"}
	}
	defer file.Close()

	format, err := table.FormatFromName(header.Filename)
	if err != nil {
		return nil, "", err
	}

	t, err := table.Read(file, format)
	if err != nil {
		var pe *table.ParseError
		if errors.As(err, &pe) && pe.Source == "" {
			pe.Source = header.Filename
		}
		return nil, "", err
	}

	params, err := s.params(r, t.Columns)
	if err != nil {
		return nil, "", err
	}

	report, err := analysis.Run(t, params)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("analysis complete",
		"source", header.Filename,
		"input_rows", report.InputRows,
		"matched_rows", report.Filtered.Len(),
		"skipped_urls", len(report.SkippedURLs))

	return report, header.Filename, nil
}

func (s *Server) params(r *http.Request, header []string) (analysis.Params, error) {
	cols := s.cfg.Columns.Resolve(header,
		r.FormValue("url_column"), r.FormValue("traffic_column"), r.FormValue("keyword_column"))

	p := analysis.Params{
		URLColumn:     cols.URL,
		TrafficColumn: cols.Traffic,
		KeywordColumn: cols.Keyword,
		URLPathQuery:  formOr(r, "url_path", s.cfg.Criteria.URLPath),
		Keywords:      formOr(r, "keywords", s.cfg.Criteria.Keywords),
		MinTraffic:    s.cfg.Criteria.MinTraffic,
	}

	if v := strings.TrimSpace(r.FormValue("min_traffic")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return p, &requestError{msg: fmt.Sprintf("invalid min_traffic %q", v)}
		}
		p.MinTraffic = f
	}
	return p, nil
}

// save writes the report to the store when one is configured. The run ID is
// returned either way so responses can be correlated with logs.
func (s *Server) save(r *http.Request, source string, report *analysis.Report) (string, error) {
	rec := &storage.RunRecord{ID: uuid.NewString(), Source: source, Report: report}
	if s.store == nil {
		return rec.ID, nil
	}
	id, err := s.store.SaveReport(r.Context(), rec)
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return id, nil
}

// formOr returns the form value for key when the field was sent, even if
// empty, and def otherwise.
func formOr(r *http.Request, key, def string) string {
	if vs, ok := r.Form[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return def
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var re *requestError
	var pe *table.ParseError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &re), errors.As(err, &pe), analysis.IsInputError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	} else {
		s.log.Debug("request rejected", "status", status, "error", err)
	}

	body := map[string]any{"error": err.Error()}
	var mc *analysis.MissingColumnError
	if errors.As(err, &mc) {
		body["missing_columns"] = mc.Columns
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v) //nolint:errcheck
}
