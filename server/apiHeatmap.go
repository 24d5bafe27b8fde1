package server

import (
	"image/png"
	"net/http"

	"github.com/arguscam/argus/server/heatmap"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

type heatmapSettingsJSON struct {
	Scheme    string  `json:"scheme"`
	Intensity float32 `json:"intensity"`
	Opacity   float32 `json:"opacity"`
	Blur      float64 `json:"blur"`
}

func (s *Server) httpHeatmapRender(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	img := s.heat.Render()
	w.Header().Set("Content-Type", "image/png")
	www.CacheNever(w)
	www.Check(png.Encode(w, img))
}

func (s *Server) httpHeatmapClear(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.heat.Clear()
	www.SendOK(w)
}

// Zero values leave a setting unchanged
func (s *Server) httpHeatmapSettings(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := heatmapSettingsJSON{}
	www.ReadJSON(w, r, &body, 1024)
	if body.Scheme != "" {
		www.Check(s.heat.SetColorScheme(heatmap.ColorScheme(body.Scheme)))
	}
	if body.Intensity != 0 {
		s.heat.SetIntensity(body.Intensity)
	}
	if body.Opacity != 0 {
		s.heat.SetOpacity(body.Opacity)
	}
	if body.Blur != 0 {
		s.heat.SetBlur(body.Blur)
	}
	www.SendOK(w)
}
