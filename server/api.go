package server

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/staticfiles"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
)

//go:embed www
var staticWWW embed.FS

func (s *Server) setupHttpRoutes() error {
	router := httprouter.New()

	handle := func(method, route string, handler httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handler)
	}

	// Dataset exports can be expensive, so they get a per-IP rate limit
	ratelimited := func(method, route string, handler httprouter.Handle, requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handler(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	handle("GET", "/api/ping", s.httpPing)
	handle("GET", "/api/status", s.httpStatus)

	handle("POST", "/api/frames", s.httpPostFrame)
	handle("GET", "/api/ws/detections", s.httpStreamDetections)

	handle("GET", "/api/zones", s.httpZoneList)
	handle("POST", "/api/zones", s.httpZoneCreate)
	handle("DELETE", "/api/zones/:id", s.httpZoneDelete)
	handle("POST", "/api/zones/:id/toggle", s.httpZoneToggle)
	handle("POST", "/api/zones/:id/rename", s.httpZoneRename)
	handle("GET", "/api/zones/:id/history", s.httpZoneHistory)
	handle("GET", "/api/zones/overlay.png", s.httpZoneOverlay)

	handle("POST", "/api/draw/rectangle/begin", s.httpDrawRectangleBegin)
	handle("POST", "/api/draw/rectangle/drag", s.httpDrawRectangleDrag)
	handle("POST", "/api/draw/rectangle/commit", s.httpDrawRectangleCommit)
	handle("POST", "/api/draw/polygon/begin", s.httpDrawPolygonBegin)
	handle("POST", "/api/draw/polygon/vertex", s.httpDrawPolygonVertex)
	handle("POST", "/api/draw/polygon/complete", s.httpDrawPolygonComplete)
	handle("POST", "/api/draw/cancel", s.httpDrawCancel)

	handle("GET", "/api/heatmap.png", s.httpHeatmapRender)
	handle("POST", "/api/heatmap/clear", s.httpHeatmapClear)
	handle("POST", "/api/heatmap/settings", s.httpHeatmapSettings)

	handle("GET", "/api/labels/classes", s.httpLabelClassList)
	handle("PUT", "/api/labels/classes", s.httpLabelClassReplace)
	handle("GET", "/api/labels/rules", s.httpLabelRuleList)
	handle("PUT", "/api/labels/rules", s.httpLabelRuleReplace)

	handle("GET", "/api/annotations/:frameID", s.httpAnnotationList)
	handle("POST", "/api/annotations/:frameID", s.httpAnnotationCreate)
	handle("POST", "/api/annotations/:frameID/:id", s.httpAnnotationUpdate)
	handle("DELETE", "/api/annotations/:frameID/:id", s.httpAnnotationDelete)

	ratelimited("GET", "/api/export/coco", s.httpExportCOCO, 10, time.Minute)
	ratelimited("GET", "/api/export/yolo/:frameID", s.httpExportYOLO, 60, time.Minute)
	ratelimited("GET", "/api/export/dataset", s.httpExportDataset, 2, time.Minute)

	isImmutable := true
	var fsys fs.FS
	fsysRoot := "www"
	fsys = staticWWW
	if s.HotReloadWWW {
		absRoot, err := filepath.Abs("server/www")
		if err != nil {
			return err
		}
		s.Log.Infof("Serving static files from %v, with hot reload", absRoot)
		fsys = os.DirFS(absRoot)
		fsysRoot = ""
		isImmutable = false
	}
	static, err := staticfiles.NewCachedStaticFileServer(fsys, fsysRoot, []string{"/api/"}, s.Log, isImmutable, nil)
	if err != nil {
		s.Log.Warnf("Error in static files: %v", err)
	}
	router.NotFound = static

	s.httpRouter = router
	return nil
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, map[string]any{
		"time": time.Now().Unix(),
	})
}

func (s *Server) httpStatus(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, map[string]any{
		"model":    s.model,
		"pipeline": s.analyzer.Stats(),
		"zones":    s.zones.Count(),
		"heatMax":  s.heat.MaxCount(),
	})
}
