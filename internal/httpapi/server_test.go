package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/scoreloom-cli/internal/export"
	"github.com/KaramelBytes/scoreloom-cli/internal/service"
	"github.com/KaramelBytes/scoreloom-cli/internal/store"
)

var fixedNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"), store.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	clock := func() time.Time { return fixedNow }
	svc := service.New(st, service.Options{Logger: zerolog.Nop(), Now: clock})
	return New(svc, Options{Logger: zerolog.Nop(), Now: clock}).Routes(), svc
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const twoRows = "Name,Subject,Marks,Highest_Mark\nAsha,Math,45,60\nRavi,Math,n/a,60\n"

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestImportCountsAndDuplicate(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/import?filename=a.csv", strings.NewReader(twoRows), "text/csv")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["added"])
	report := body["report"].(map[string]any)
	assert.EqualValues(t, 1, report["dropped_invalid_numeric"])
	assert.Equal(t, "a.csv", report["source"])

	rec = do(t, h, http.MethodPost, "/import?filename=a.csv", strings.NewReader(twoRows), "text/csv")
	require.Equal(t, http.StatusConflict, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "DUPLICATE", body["error_code"])
	details := body["details"].(map[string]any)
	assert.EqualValues(t, 1, details["position"])
	assert.EqualValues(t, 0, details["committed"])

	rec = do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := rec.Body.String()
	assert.Contains(t, metrics, "scoreloom_records_imported_total 1")
	assert.Contains(t, metrics, `scoreloom_rows_dropped_total{reason="invalid_numeric"} 2`)
	assert.Contains(t, metrics, "scoreloom_duplicates_rejected_total 1")
	assert.Contains(t, metrics, `scoreloom_http_requests_total{method="POST",route="/import",status="409"} 1`)
}

func TestImportErrors(t *testing.T) {
	h, svc := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/import", strings.NewReader("Name,Subject,Marks\nAsha,Math,4\n"), "text/csv")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "MISSING_COLUMNS", body["error_code"])
	assert.Equal(t, []any{"Highest_Mark"}, body["details"].(map[string]any)["missing"])

	rec = do(t, h, http.MethodPost, "/import", strings.NewReader(""), "text/csv")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNPARSABLE_INPUT", decode(t, rec)["error_code"])

	rec = do(t, h, http.MethodPost, "/import", strings.NewReader("Name,Subject,Marks,Highest_Mark\n,,,\n"), "text/csv")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_VALID_ROWS", decode(t, rec)["error_code"])

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalRecords)
}

func TestMultipartImport(t *testing.T) {
	h, svc := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "scores.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Name;Subject;Marks;Highest_Mark\nAsha;Physics;30;40\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/import", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["added"])

	recs, err := svc.ListRecords(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 75.0, recs[0].Percentage, 1e-9)

	rec = do(t, h, http.MethodPost, "/import", strings.NewReader("--x--"), "multipart/form-data; boundary=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddRecord(t *testing.T) {
	h, _ := newTestServer(t)
	payload := `{"Name":"Asha","Subject":"Physics","Course":"JEE","Marks":40,"Highest_Mark":50}`

	rec := do(t, h, http.MethodPost, "/records", strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.InDelta(t, 80.0, body["percentage"], 1e-9)
	assert.Equal(t, "June", body["month"])

	rec = do(t, h, http.MethodPost, "/records", strings.NewReader(payload), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/records", strings.NewReader(`{"Name":"Asha","Marks":1,"Highest_Mark":2}`), "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "MISSING_FIELD", body["error_code"])
	assert.Equal(t, "Subject", body["details"].(map[string]any)["field"])

	rec = do(t, h, http.MethodPost, "/records", strings.NewReader(`{"Name":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListFilterAndDeletes(t *testing.T) {
	h, svc := newTestServer(t)
	_, err := svc.LoadSample(context.Background())
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/records?track=neet", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/records?track=GATE", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/records/abc", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/records/99", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/records/1", nil, "").Code)

	rec = do(t, h, http.MethodDelete, "/students/Asgar%20Hussain%20Sayyed", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, decode(t, rec)["deleted"])

	_, err = svc.LoadSample(context.Background())
	require.NoError(t, err)
	rec = do(t, h, http.MethodDelete, "/records", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFIRMATION_REQUIRED", decode(t, rec)["error_code"])
	require.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/records?confirm=true", nil, "").Code)

	rec = do(t, h, http.MethodGet, "/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["total_records"])
}

func TestSummaryInsightsExport(t *testing.T) {
	h, svc := newTestServer(t)
	_, err := svc.LoadSample(context.Background())
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/summary?group_by=track", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["groups"], 2)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/summary?group_by=colour", nil, "").Code)

	rec = do(t, h, http.MethodGet, "/summary?format=markdown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[PERFORMANCE SUMMARY]")

	rec = do(t, h, http.MethodGet, "/insights/Asgar%20Hussain%20Sayyed?track=JEE", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["insights"].([]any)
	require.NotEmpty(t, list)
	assert.True(t, strings.HasPrefix(list[0].(string), "Needs Improvement"))

	rec = do(t, h, http.MethodGet, "/export?format=xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.XLSX.ContentType(), rec.Header().Get("Content-Type"))
	assert.Equal(t, "5", rec.Header().Get("X-Record-Count"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "student_performance_data_20240610_120000.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = do(t, h, http.MethodGet, "/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, strings.Count(rec.Body.String(), "\n"))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/export?format=pdf", nil, "").Code)
}
