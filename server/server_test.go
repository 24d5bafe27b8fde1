package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/arguscam/argus/server/config"
	"github.com/arguscam/argus/server/labeling"
	"github.com/arguscam/argus/server/zones"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	dir := t.TempDir()

	model := nn.ModelConfig{
		Architecture: "yolov8",
		Width:        640,
		Height:       640,
		Classes:      []string{"person", "atm-machine"},
	}
	raw, err := json.Marshal(&model)
	require.NoError(t, err)
	modelFile := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(modelFile, raw, 0644))

	cfg := &config.Config{
		Model:  config.Model{ConfigFile: modelFile, NumCandidates: 16},
		DBPath: filepath.Join(dir, "argus.sqlite"),
	}
	s, err := NewServer(logs.NewTestingLog(t), cfg, 0)
	require.NoError(t, err)
	return s
}

func (s *Server) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.httpRouter.ServeHTTP(w, r)
	return w
}

func TestHttpPing(t *testing.T) {
	s := newTestServer(t)
	w := s.request(t, "GET", "/api/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, "GET", "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Contains(t, status, "pipeline")
}

func TestHttpZoneCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.request(t, "POST", "/api/zones", createZoneJSON{
		Name:   "entrance",
		Kind:   zones.KindRectangle,
		Points: []nn.Point{{X: 0, Y: 0}, {X: 100, Y: 100}},
		Color:  "#ff0000",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, "GET", "/api/zones", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := []*zones.Zone{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	id := list[0].ID

	// Mutations persist to the config DB, so a fresh engine sees them
	w = s.request(t, "POST", "/api/zones/"+idString(id)+"/rename?name=lobby", nil)
	require.Equal(t, http.StatusOK, w.Code)
	loaded, err := s.configDB.LoadZones()
	require.NoError(t, err)
	require.Equal(t, "lobby", loaded[0].Name)

	w = s.request(t, "POST", "/api/zones/"+idString(id)+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, "DELETE", "/api/zones/"+idString(id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	loaded, err = s.configDB.LoadZones()
	require.NoError(t, err)
	require.Empty(t, loaded)

	// Invalid zones are rejected
	w = s.request(t, "POST", "/api/zones", createZoneJSON{
		Name:   "tiny",
		Kind:   zones.KindRectangle,
		Points: []nn.Point{{X: 0, Y: 0}, {X: 2, Y: 2}},
		Color:  "#ff0000",
	})
	require.NotEqual(t, http.StatusOK, w.Code)
}

func TestHttpLabelConfig(t *testing.T) {
	s := newTestServer(t)

	classes := []labeling.ClassDef{{Name: "customer-at-atm", Color: "#ff0000"}}
	w := s.request(t, "PUT", "/api/labels/classes", classes)
	require.Equal(t, http.StatusOK, w.Code)

	rules := []labeling.Rule{{
		Source: "person", Target: "customer-at-atm",
		Condition: labeling.ConditionNear, Reference: "atm-machine",
		Distance: 50, Enabled: true,
	}}
	w = s.request(t, "PUT", "/api/labels/rules", rules)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, "GET", "/api/labels/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := []labeling.Rule{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.NotZero(t, got[0].ID)

	// Unknown conditions are rejected
	bad := []labeling.Rule{{Source: "person", Target: "x", Condition: "overlapping"}}
	w = s.request(t, "PUT", "/api/labels/rules", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHttpFrameSubmit(t *testing.T) {
	s := newTestServer(t)
	s.analyzer.Start()
	defer s.analyzer.Close()

	buffer := make([]float32, (4+2)*16)
	frame := map[string]any{
		"frameID":     1,
		"imageWidth":  640,
		"imageHeight": 640,
		"buffer":      buffer,
	}
	w := s.request(t, "POST", "/api/frames", frame)
	require.Equal(t, http.StatusOK, w.Code)
	resp := map[string]bool{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp, "accepted")

	// An empty buffer is a bad request
	w = s.request(t, "POST", "/api/frames", map[string]any{"frameID": 2})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHttpHeatmapAndExports(t *testing.T) {
	s := newTestServer(t)

	w := s.request(t, "GET", "/api/heatmap.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = s.request(t, "POST", "/api/heatmap/settings", heatmapSettingsJSON{Scheme: "plasma"})
	require.NotEqual(t, http.StatusOK, w.Code)
	w = s.request(t, "POST", "/api/heatmap/settings", heatmapSettingsJSON{Scheme: "cool", Opacity: 0.5})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, "GET", "/api/export/coco", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = s.request(t, "GET", "/api/export/dataset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/zip", w.Header().Get("Content-Type"))
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
