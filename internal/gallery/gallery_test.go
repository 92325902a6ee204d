package gallery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/climalyze/internal/config"
	"github.com/KaramelBytes/climalyze/internal/manifest"
	"github.com/KaramelBytes/climalyze/internal/status"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func newGallery(t *testing.T, files ...string) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), pngBytes, 0o644))
	}
	s, err := New(dir, NewCaptions(nil))
	require.NoError(t, err)
	return s, dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCaptions_Lookup(t *testing.T) {
	c := NewCaptions(map[string]config.Caption{
		"global_temperature_trend": {Caption: "Warming"},
		"city_temp_temp_trend":     {Description: "Monthly means per city."},
	})

	caption, desc := c.Lookup("top_10_polluted_cities")
	assert.Equal(t, "Top 10 Polluted Cities (Global Overview)", caption)
	assert.Contains(t, desc, "most polluted cities")

	caption, desc = c.Lookup("global_temperature_trend")
	assert.Equal(t, "Warming", caption)
	assert.Contains(t, desc, "greenhouse gas", "empty override keeps the built-in description")

	caption, desc = c.Lookup("temp_vs_aqi_correlation")
	assert.Equal(t, "Temp Vs Aqi Correlation", caption)
	assert.Equal(t, DefaultDescription, desc)

	caption, desc = c.Lookup("city_temp_temp_trend")
	assert.Equal(t, "City Temp Temp Trend", caption)
	assert.Equal(t, "Monthly means per city.", desc)
}

func TestVisuals_SortedImagesOnly(t *testing.T) {
	s, dir := newGallery(t, "b.png", "a.JPG", "c.jpeg", "notes.txt", "summaries.xlsx")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	v, err := s.Visuals()
	require.NoError(t, err)
	var names []string
	for _, e := range v {
		names = append(names, e.Filename)
	}
	assert.Equal(t, []string{"a.JPG", "b.png", "c.jpeg"}, names)
	assert.Equal(t, "/visuals/b.png", v[1].URL)
}

func TestVisuals_MissingDir(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	v, err := s.Visuals()
	require.NoError(t, err)
	assert.Empty(t, v)

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No visuals yet")
}

func TestIndex_ListsCaptions(t *testing.T) {
	s, _ := newGallery(t, "correlation_heatmap.png", "air_quality_distribution.png")
	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Correlation Between Environmental Factors")
	assert.Contains(t, body, "Air Quality Distribution")
	assert.Contains(t, body, `src="/visuals/air_quality_distribution.png"`)
	assert.Less(t, strings.Index(body, "air_quality_distribution.png"), strings.Index(body, "correlation_heatmap.png"))
}

func TestIndex_ShowsLastRun(t *testing.T) {
	s, dir := newGallery(t, "x.png")
	m := manifest.New(dir, "data")
	m.Record(status.Done("x", filepath.Join(dir, "x.png")))
	m.Record(status.Skip("y", "no city column"))
	m.AddDataset(&manifest.Dataset{Name: "global_temp", Status: "loaded", CleanRows: 12})
	m.AddDataset(&manifest.Dataset{Name: "air_quality", Status: "failed"})
	r := -0.25
	m.Correlation = &r
	require.NoError(t, m.Save())

	body := get(t, s, "/").Body.String()
	assert.Contains(t, body, m.RunID)
	assert.Contains(t, body, "1 ok, 1 skipped")
	assert.Contains(t, body, "r = -0.250")
	assert.Contains(t, body, "air_quality failed (0 rows) · global_temp loaded (12 rows)")

	rec := get(t, s, "/api/run")
	require.Equal(t, http.StatusOK, rec.Code)
	var info RunInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, m.RunID, info.RunID)
	require.NotNil(t, info.Correlation)
	assert.InDelta(t, -0.25, *info.Correlation, 1e-9)
	require.Len(t, info.Datasets, 2)
	assert.Equal(t, "air_quality", info.Datasets[0].Name)
}

func TestRun_NotFoundWithoutManifest(t *testing.T) {
	s, _ := newGallery(t)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/run").Code)
}

func TestServeVisual(t *testing.T) {
	s, dir := newGallery(t, "chart.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	rec := get(t, s, "/visuals/chart.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/visuals/missing.png").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/visuals/secret.txt").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/visuals/..%2Fchart.png").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/visuals/.hidden.png").Code)
}

func TestAPI_ListWithCORS(t *testing.T) {
	s, _ := newGallery(t, "global_temperature_trend.png")
	req := httptest.NewRequest(http.MethodGet, "/api/visuals", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	var v []Visual
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	require.Len(t, v, 1)
	assert.Equal(t, "Global Temperature Trend (1850–2023)", v[0].Caption)
}

func TestHealthz(t *testing.T) {
	s, _ := newGallery(t)
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
