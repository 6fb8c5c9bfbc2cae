package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/rankscope/internal/analysis"
	"github.com/runnerr0/rankscope/internal/config"
	"github.com/runnerr0/rankscope/internal/storage"
	"github.com/runnerr0/rankscope/internal/table"
)

const sampleCSV = "Keyword,Ranking URL,Traffic Index,Translation\n" +
	"k1,https://ex.com/compressors/small,10,air compressor\n" +
	"k2,https://ex.com/compressors/large,4,big unit\n" +
	"k3,https://ex.com/blog,3,compressor tips\n" +
	"k4,https://ex.com/fans,50,ceiling fan\n"

// fakeStore records saved runs.
type fakeStore struct {
	saved []*storage.RunRecord
	err   error
}

func (f *fakeStore) SaveReport(_ context.Context, rec *storage.RunRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, rec)
	return rec.ID, nil
}

func (f *fakeStore) Close() error { return nil }

func newTestServer(store storage.Store) *Server {
	return New(config.DefaultConfig(), store, nil, "test")
}

// uploadRequest builds a multipart POST with a file part and form fields.
func uploadRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	return doc
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(nil), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	doc := decode(t, rec)
	assert.Equal(t, "ok", doc["status"])
	assert.Equal(t, "test", doc["version"])
}

func TestAnalyze_DefaultsFromConfig(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	rec := serve(s, uploadRequest(t, "/api/v1/analyze", "export.csv", sampleCSV, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decode(t, rec)
	assert.Equal(t, float64(4), doc["input_rows"])
	assert.Equal(t, float64(3), doc["matched_rows"])

	params := doc["params"].(map[string]any)
	assert.Equal(t, "Ranking URL", params["url_column"])
	assert.Equal(t, "Traffic Index", params["traffic_column"])
	assert.Equal(t, "Translation", params["keyword_column"])
	assert.Equal(t, "/compressors", params["url_path"])

	summary := doc["summary"].([]any)
	require.Len(t, summary, 4)
	total := summary[3].(map[string]any)
	assert.Equal(t, analysis.DimTotal, total["dimension"])
	assert.Equal(t, 17.0, total["traffic"])

	assert.NotNil(t, doc["filtered"])
	require.Len(t, store.saved, 1)
	assert.Equal(t, "export.csv", store.saved[0].Source)
	assert.Equal(t, doc["run_id"], store.saved[0].ID)
	assert.Equal(t, doc["run_id"], rec.Header().Get("X-Run-Id"))
}

func TestAnalyze_FormParamsOverrideDefaults(t *testing.T) {
	rec := serve(newTestServer(nil), uploadRequest(t, "/api/v1/analyze", "export.csv", sampleCSV, map[string]string{
		"url_path":    "",
		"keywords":    "fan",
		"min_traffic": "1",
		"rows":        "false",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decode(t, rec)
	assert.Equal(t, float64(1), doc["matched_rows"])
	assert.Nil(t, doc["filtered"])

	prog := doc["progressive_paths"].([]any)
	require.Len(t, prog, 1)
	first := prog[0].(map[string]any)
	assert.Equal(t, "/fans/", first["path"])
	assert.Equal(t, "100.0%", first["traffic_split"])
}

func TestAnalyze_MissingColumn(t *testing.T) {
	rec := serve(newTestServer(nil), uploadRequest(t, "/api/v1/analyze", "export.csv", sampleCSV, map[string]string{
		"traffic_column": "Visits",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	doc := decode(t, rec)
	assert.Equal(t, []any{"Visits"}, doc["missing_columns"])
}

func TestAnalyze_EmptyCriteria(t *testing.T) {
	rec := serve(newTestServer(nil), uploadRequest(t, "/api/v1/analyze", "export.csv", sampleCSV, map[string]string{
		"url_path": " ",
		"keywords": "",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "empty")
}

func TestAnalyze_BadUploads(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
	}{
		{"no file", "", "", nil},
		{"unsupported type", "export.pdf", "%PDF", nil},
		{"empty csv", "export.csv", "", nil},
		{"corrupt workbook", "export.xlsx", "not a zip", nil},
		{"bad min traffic", "export.csv", sampleCSV, map[string]string{"min_traffic": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestServer(nil), uploadRequest(t, "/api/v1/analyze", tt.filename, tt.content, tt.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestAnalyze_UploadTooLarge(t *testing.T) {
	s := newTestServer(nil)
	s.cfg.Server.MaxUploadSize = 64

	rec := serve(s, uploadRequest(t, "/api/v1/analyze", "export.csv", sampleCSV, nil))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
}

func TestAnalyze_StoreFailure(t *testing.T) {
	s := newTestServer(&fakeStore{err: errors.New("disk full")})

	rec := serve(s, uploadRequest(t, "/api/v1/analyze", "export.csv", sampleCSV, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "disk full")
}

func TestExport_ReturnsWorkbook(t *testing.T) {
	s := newTestServer(nil)

	rec := serve(s, uploadRequest(t, "/api/v1/analyze/export", "export.csv", sampleCSV, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rankscope_results.xlsx")

	got, err := table.Read(bytes.NewReader(rec.Body.Bytes()), table.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Keyword", "Ranking URL", "Traffic Index",
		analysis.ColURLMatch, analysis.ColKeywordMatch, analysis.ColCategory,
		"Translation",
	}, got.Columns)
	assert.Equal(t, 3, got.Len())
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := serve(newTestServer(nil), req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&table.ParseError{Err: errors.New("x")}))
	assert.Equal(t, http.StatusBadRequest, statusFor(analysis.ErrEmptyCriteria))
	assert.Equal(t, http.StatusBadRequest, statusFor(&analysis.MissingColumnError{Columns: []string{"a"}}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(&http.MaxBytesError{Limit: 1}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8722", newTestServer(nil).Addr())
}
