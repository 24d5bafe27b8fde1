package server

import (
	"net/http"

	"github.com/arguscam/argus/server/analysis"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

// Raw output tensors are large (eg 8400 candidates x 84 channels of JSON
// floats), so allow a generous body
const maxFrameBodySize = 256 * 1024 * 1024

// httpPostFrame feeds one frame of raw model output into the pipeline.
// If the pipeline is mid-frame, the new frame is dropped, and the response
// says so; the producer is expected to keep sending at its native rate.
func (s *Server) httpPostFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	frame := analysis.ModelOutput{}
	www.ReadJSON(w, r, &frame, maxFrameBodySize)
	if len(frame.Buffer) == 0 {
		www.PanicBadRequestf("Frame %v has an empty output buffer", frame.FrameID)
	}
	accepted := s.analyzer.Submit(&frame)
	www.SendJSON(w, map[string]bool{"accepted": accepted})
}
