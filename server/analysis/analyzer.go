// Package analysis runs the frame-synchronous detection pipeline: raw model
// output is decoded, de-duplicated with non-max suppression, categorized and
// filtered, then fed to the zone engine, the heat accumulator and the
// labeling rule engine in one pass.
package analysis

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/arguscam/argus/pkg/category"
	"github.com/arguscam/argus/pkg/nn"
	"github.com/arguscam/argus/server/heatmap"
	"github.com/arguscam/argus/server/labeling"
	"github.com/arguscam/argus/server/zones"
	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/logs"
)

// ModelOutput is one frame's raw inference result, as handed to Submit
type ModelOutput struct {
	FrameID     int64     `json:"frameID"`
	PTS         time.Time `json:"pts"`
	ImageWidth  int       `json:"imageWidth"`
	ImageHeight int       `json:"imageHeight"`
	Buffer      []float32 `json:"buffer"` // raw model output tensor
	Image       []byte    `json:"image"`  // encoded JPEG of the frame, optional (kept for dataset export)
}

// AnalyzedObject is a detection enriched by the pipeline stages
type AnalyzedObject struct {
	nn.Detection
	Category category.Category `json:"category"`
	ZoneIDs  []int64           `json:"zoneIDs"`
}

// AnalysisState is the result of processing one frame. This is what watchers
// receive, and what the live websocket stream sends to clients.
type AnalysisState struct {
	FrameID      int64                 `json:"frameID"`
	PTS          time.Time             `json:"pts"`
	Objects      []AnalyzedObject      `json:"objects"`
	Unrestricted bool                  `json:"unrestricted"`
	Annotations  []labeling.Annotation `json:"annotations"`
}

// Stats are the pipeline's lifetime counters
type Stats struct {
	Processed      int64 `json:"processed"`
	Dropped        int64 `json:"dropped"`
	DecodeFailures int64 `json:"decodeFailures"`
	Busy           bool  `json:"busy"`
}

// Analyzer is the single-threaded pipeline driver. Frames are offered via
// Submit; if a frame arrives while the previous one is still in flight, it is
// dropped rather than queued, so the pipeline never falls behind the camera.
type Analyzer struct {
	Log      logs.Log
	Zones    *zones.Engine
	Heat     *heatmap.Accumulator
	Labeling *labeling.Engine

	model      nn.ModelConfig
	layout     nn.OutputLayout
	params     *nn.DetectionParams
	classifier *category.Classifier

	filterLock sync.Mutex
	filter     category.FilterConfig

	busy           atomic.Bool
	minInterval    atomic.Int64 // minimum nanoseconds between accepted frames (0 = no cap)
	lastAccept     atomic.Int64 // unix nanoseconds of the last accepted frame
	incoming       chan *ModelOutput
	stop           chan bool
	looperStopped  chan bool
	processed      atomic.Int64
	dropped        atomic.Int64
	decodeFailures atomic.Int64
	lastErrAt      time.Time

	watchersLock sync.RWMutex
	watchers     []chan *AnalysisState

	countersLock sync.Mutex
	counters     map[int64]*zoneHistory
	historySize  int

	imagesLock sync.Mutex
	images     ringbuffer.RingP[frameImage]
}

// DefaultImageCacheSize is how many recent frame JPEGs are retained for
// dataset export
const DefaultImageCacheSize = 32

type frameImage struct {
	frameID int64
	jpeg    []byte
}

func NewAnalyzer(logger logs.Log, model nn.ModelConfig, numCandidates int, params *nn.DetectionParams,
	classifier *category.Classifier, filter category.FilterConfig,
	zoneEngine *zones.Engine, heat *heatmap.Accumulator, labelEngine *labeling.Engine) *Analyzer {

	if params == nil {
		params = nn.NewDetectionParams()
	}
	return &Analyzer{
		Log:      logs.NewPrefixLogger(logger, "Analyzer"),
		Zones:    zoneEngine,
		Heat:     heat,
		Labeling: labelEngine,
		model:    model,
		layout: nn.OutputLayout{
			NumClasses:    len(model.Classes),
			NumCandidates: numCandidates,
		},
		params:      params,
		classifier:  classifier,
		filter:      filter,
		incoming:    make(chan *ModelOutput, 1),
		counters:    map[int64]*zoneHistory{},
		historySize: DefaultZoneHistorySize,
		images:      ringbuffer.NewRingP[frameImage](DefaultImageCacheSize),
	}
}

// Start launches the pipeline goroutine
func (a *Analyzer) Start() {
	a.stop = make(chan bool)
	a.looperStopped = make(chan bool)
	go a.loop()
}

// Close stops the pipeline goroutine and waits for it to exit. Accumulated
// state (zones, heat, annotations, counters) is left intact.
func (a *Analyzer) Close() {
	if a.stop == nil {
		return
	}
	close(a.stop)
	<-a.looperStopped
	a.stop = nil
	a.Log.Infof("Analyzer stopped")
}

// SetTargetFPS caps the rate at which Submit accepts frames. Frames arriving
// faster than the target rate are dropped, same as frames arriving while the
// pipeline is busy. Zero removes the cap.
func (a *Analyzer) SetTargetFPS(fps int) {
	if fps <= 0 {
		a.minInterval.Store(0)
		return
	}
	a.minInterval.Store(int64(time.Second) / int64(fps))
}

// Submit offers a frame to the pipeline. If the previous frame is still being
// processed, or the frame arrives faster than the target FPS allows, the new
// frame is dropped and Submit returns false.
func (a *Analyzer) Submit(frame *ModelOutput) bool {
	if interval := a.minInterval.Load(); interval != 0 {
		now := time.Now().UnixNano()
		last := a.lastAccept.Load()
		if now-last < interval || !a.lastAccept.CompareAndSwap(last, now) {
			a.dropped.Add(1)
			return false
		}
	}
	if !a.busy.CompareAndSwap(false, true) {
		a.dropped.Add(1)
		return false
	}
	// The busy flag guarantees the channel slot is free
	a.incoming <- frame
	return true
}

func (a *Analyzer) loop() {
	for {
		select {
		case frame := <-a.incoming:
			state, err := a.processFrame(frame)
			a.busy.Store(false)
			if err != nil {
				// Throttle, because a misconfigured model fails on every frame
				if time.Since(a.lastErrAt) > 15*time.Second {
					a.Log.Errorf("Failed to analyze frame %v: %v", frame.FrameID, err)
					a.lastErrAt = time.Now()
				}
			} else {
				a.sendToWatchers(state)
			}
		case <-a.stop:
			close(a.looperStopped)
			return
		}
	}
}

// processFrame runs all pipeline stages on one frame. Decode failure aborts
// before any engine state is touched.
func (a *Analyzer) processFrame(frame *ModelOutput) (*AnalysisState, error) {
	raw, err := nn.DecodeOutput(frame.Buffer, a.layout, a.model.Width, a.model.Height,
		frame.ImageWidth, frame.ImageHeight, a.params.ConfidenceThreshold)
	if err != nil {
		a.decodeFailures.Add(1)
		return nil, err
	}
	merged := nn.NonMaxSuppression(raw, a.params.NmsIouThreshold)
	filtered := a.classifier.Filter(merged, a.model.Classes, a.currentFilter())

	state := &AnalysisState{
		FrameID:      frame.FrameID,
		PTS:          frame.PTS,
		Objects:      make([]AnalyzedObject, 0, len(filtered)),
		Unrestricted: a.Zones.Count() == 0,
	}
	zoneCounts := map[int64]int{}
	for _, det := range filtered {
		ids, _ := a.Zones.IntersectingZones(det.Box)
		for _, id := range ids {
			zoneCounts[id]++
		}
		state.Objects = append(state.Objects, AnalyzedObject{
			Detection: det,
			Category:  a.classifier.Classify(a.model.ClassName(det.Class)),
			ZoneIDs:   ids,
		})
	}

	a.Heat.Ingest(filtered)
	state.Annotations = a.Labeling.ApplyFrame(filtered, a.model.Classes, frame.FrameID)
	a.recordZoneCounts(frame.FrameID, frame.PTS, zoneCounts)
	if len(frame.Image) != 0 {
		a.recordImage(frame.FrameID, frame.Image)
	}
	a.processed.Add(1)
	return state, nil
}

func (a *Analyzer) recordImage(frameID int64, jpeg []byte) {
	a.imagesLock.Lock()
	defer a.imagesLock.Unlock()
	a.images.Add(frameImage{frameID: frameID, jpeg: jpeg})
}

// FrameImages returns the retained frame JPEGs, keyed by frame ID
func (a *Analyzer) FrameImages() map[int64][]byte {
	a.imagesLock.Lock()
	defer a.imagesLock.Unlock()
	out := map[int64][]byte{}
	for i := 0; i < a.images.Len(); i++ {
		img := a.images.Peek(i)
		out[img.frameID] = img.jpeg
	}
	return out
}

func (a *Analyzer) currentFilter() category.FilterConfig {
	a.filterLock.Lock()
	defer a.filterLock.Unlock()
	return a.filter
}

// SetFilter replaces the category filter config, effective from the next frame
func (a *Analyzer) SetFilter(filter category.FilterConfig) {
	a.filterLock.Lock()
	defer a.filterLock.Unlock()
	a.filter = filter
}

func (a *Analyzer) Stats() Stats {
	return Stats{
		Processed:      a.processed.Load(),
		Dropped:        a.dropped.Load(),
		DecodeFailures: a.decodeFailures.Load(),
		Busy:           a.busy.Load(),
	}
}
