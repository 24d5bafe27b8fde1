package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpExportCOCO(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=annotations.json")
	www.Check(s.labeling.WriteCOCO(w, s.model.Width, s.model.Height))
}

func (s *Server) httpExportYOLO(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	frameID := www.ParseID(params.ByName("frameID"))
	lines := s.labeling.ExportYOLOLines(frameID, s.model.Width, s.model.Height)
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=frame_%v.txt", frameID))
	if len(lines) != 0 {
		_, err := w.Write([]byte(strings.Join(lines, "\n") + "\n"))
		www.Check(err)
	}
}

func (s *Server) httpExportDataset(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=dataset.zip")
	www.Check(s.labeling.ExportDataset(w, s.model.Width, s.model.Height, s.analyzer.FrameImages()))
}
