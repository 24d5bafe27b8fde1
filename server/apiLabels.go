package server

import (
	"net/http"

	"github.com/arguscam/argus/pkg/nn"
	"github.com/arguscam/argus/server/labeling"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpLabelClassList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.labeling.Classes())
}

func (s *Server) httpLabelClassReplace(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	classes := []labeling.ClassDef{}
	www.ReadJSON(w, r, &classes, 1024*1024)
	for _, class := range classes {
		if class.Name == "" {
			www.PanicBadRequestf("Class name may not be empty")
		}
	}
	s.labeling.DefineClasses(classes)
	www.Check(s.configDB.ReplaceLabelClasses(classes))
	www.SendOK(w)
}

func (s *Server) httpLabelRuleList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.labeling.Rules())
}

// The rule list is replaced wholesale: order is part of the configuration,
// and the UI edits the list as a unit
func (s *Server) httpLabelRuleReplace(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	rules := []labeling.Rule{}
	www.ReadJSON(w, r, &rules, 1024*1024)
	for i := range rules {
		switch rules[i].Condition {
		case labeling.ConditionAlways, labeling.ConditionNear, labeling.ConditionInside, labeling.ConditionTouching:
		default:
			www.PanicBadRequestf("Invalid rule condition '%v'", rules[i].Condition)
		}
	}
	s.labeling.LoadRules(nil)
	for i := range rules {
		rules[i] = s.labeling.AddRule(rules[i])
	}
	www.Check(s.configDB.ReplaceLabelRules(rules))
	www.SendJSON(w, rules)
}

type annotationEditJSON struct {
	Class      string  `json:"class"`
	Box        nn.Rect `json:"box"`
	Confidence float32 `json:"confidence"`
}

func (s *Server) httpAnnotationList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	frameID := www.ParseID(params.ByName("frameID"))
	www.SendJSON(w, s.labeling.Annotations(frameID))
}

func (s *Server) httpAnnotationCreate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	frameID := www.ParseID(params.ByName("frameID"))
	body := annotationEditJSON{}
	www.ReadJSON(w, r, &body, 1024*1024)
	ann := s.labeling.AddManual(frameID, body.Class, body.Box, body.Confidence)
	www.Check(s.configDB.SaveAnnotations([]labeling.Annotation{ann}))
	www.SendID(w, ann.ID)
}

func (s *Server) httpAnnotationUpdate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	frameID := www.ParseID(params.ByName("frameID"))
	id := www.ParseID(params.ByName("id"))
	body := annotationEditJSON{}
	www.ReadJSON(w, r, &body, 1024*1024)
	www.Check(s.labeling.UpdateAnnotation(id, body.Class, body.Box))
	www.Check(s.configDB.SaveAnnotations(s.labeling.Annotations(frameID)))
	www.SendOK(w)
}

func (s *Server) httpAnnotationDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	www.Check(s.labeling.RemoveAnnotation(id))
	www.Check(s.configDB.DeleteAnnotation(id))
	www.SendOK(w)
}
