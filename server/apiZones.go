package server

import (
	"image/png"
	"net/http"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/arguscam/argus/server/zones"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

type createZoneJSON struct {
	Name   string     `json:"name"`
	Kind   zones.Kind `json:"kind"`
	Points []nn.Point `json:"points"`
	Color  string     `json:"color"`
}

func (s *Server) httpZoneList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.zones.Zones())
}

func (s *Server) httpZoneCreate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := createZoneJSON{}
	www.ReadJSON(w, r, &body, 1024*1024)
	zone, err := s.zones.AddZone(body.Name, body.Kind, body.Points, body.Color)
	www.Check(err)
	www.Check(s.configDB.SaveZone(zone))
	www.SendID(w, zone.ID)
}

func (s *Server) httpZoneDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	www.Check(s.zones.RemoveZone(id))
	www.Check(s.configDB.DeleteZone(id))
	www.SendOK(w)
}

func (s *Server) httpZoneToggle(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	enabled, err := s.zones.Toggle(id)
	www.Check(err)
	www.Check(s.saveZoneByID(id))
	www.SendJSON(w, map[string]bool{"enabled": enabled})
}

func (s *Server) httpZoneRename(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	name := www.RequiredQueryValue(r, "name")
	www.Check(s.zones.Rename(id, name))
	www.Check(s.saveZoneByID(id))
	www.SendOK(w)
}

func (s *Server) httpZoneHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	www.SendJSON(w, map[string]any{
		"total":   s.analyzer.ZoneTotal(id),
		"samples": s.analyzer.ZoneHistory(id),
	})
}

func (s *Server) httpZoneOverlay(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	img := s.zones.RenderOverlay(s.model.Width, s.model.Height)
	w.Header().Set("Content-Type", "image/png")
	www.Check(png.Encode(w, img))
}

func (s *Server) saveZoneByID(id int64) error {
	for _, z := range s.zones.Zones() {
		if z.ID == id {
			return s.configDB.SaveZone(z)
		}
	}
	return zones.ErrZoneNotFound
}

// Interactive drawing endpoints. The engine holds the in-flight drawing
// state, so the client only posts cursor positions.

type drawPointJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type drawCommitJSON struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func readDrawPoint(w http.ResponseWriter, r *http.Request) nn.Point {
	body := drawPointJSON{}
	www.ReadJSON(w, r, &body, 1024)
	return nn.Point{X: body.X, Y: body.Y}
}

func (s *Server) httpDrawRectangleBegin(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.Check(s.zones.BeginRectangle(readDrawPoint(w, r)))
	www.SendOK(w)
}

func (s *Server) httpDrawRectangleDrag(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.Check(s.zones.DragRectangle(readDrawPoint(w, r)))
	www.SendOK(w)
}

func (s *Server) httpDrawRectangleCommit(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := drawCommitJSON{}
	www.ReadJSON(w, r, &body, 1024)
	zone, err := s.zones.CommitRectangle(nn.Point{X: body.X, Y: body.Y}, body.Name, body.Color)
	www.Check(err)
	www.Check(s.configDB.SaveZone(zone))
	www.SendID(w, zone.ID)
}

func (s *Server) httpDrawPolygonBegin(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.Check(s.zones.BeginPolygon(readDrawPoint(w, r)))
	www.SendOK(w)
}

func (s *Server) httpDrawPolygonVertex(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.Check(s.zones.AddVertex(readDrawPoint(w, r)))
	www.SendOK(w)
}

func (s *Server) httpDrawPolygonComplete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := drawCommitJSON{}
	www.ReadJSON(w, r, &body, 1024)
	zone, err := s.zones.CompletePolygon(body.Name, body.Color)
	www.Check(err)
	www.Check(s.configDB.SaveZone(zone))
	www.SendID(w, zone.ID)
}

func (s *Server) httpDrawCancel(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.zones.CancelDrawing()
	www.SendOK(w)
}
