// Package server wires the analysis pipeline, the persistence layer and the
// HTTP API together.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/arguscam/argus/pkg/category"
	"github.com/arguscam/argus/pkg/nn"
	"github.com/arguscam/argus/server/analysis"
	"github.com/arguscam/argus/server/config"
	"github.com/arguscam/argus/server/configdb"
	"github.com/arguscam/argus/server/heatmap"
	"github.com/arguscam/argus/server/labeling"
	"github.com/arguscam/argus/server/zones"
	"github.com/cyclopcam/logs"
	"github.com/julienschmidt/httprouter"
)

// ServerFlagHotReloadWWW serves static files from disk instead of the
// embedded filesystem
const ServerFlagHotReloadWWW = 1

type Server struct {
	Log          logs.Log
	HotReloadWWW bool

	config   *config.Config
	configDB *configdb.ConfigDB
	analyzer *analysis.Analyzer
	zones    *zones.Engine
	heat     *heatmap.Accumulator
	labeling *labeling.Engine
	model    *nn.ModelConfig

	httpRouter      *httprouter.Router
	httpServer      *http.Server
	persisterStop   chan bool
	persisterDone   chan bool
	shutdownStarted chan bool
}

func NewServer(logger logs.Log, cfg *config.Config, flags int) (*Server, error) {
	model, err := nn.LoadModelConfig(cfg.Model.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("Failed to load model config: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "argus.sqlite"
	}
	db, err := configdb.NewConfigDB(logger, dbPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Log:             logger,
		HotReloadWWW:    flags&ServerFlagHotReloadWWW != 0,
		config:          cfg,
		configDB:        db,
		model:           model,
		zones:           zones.NewEngine(logger),
		heat:            heatmap.NewAccumulator(logger, model.Width, model.Height, cfg.Heatmap.GridSize),
		labeling:        labeling.NewEngine(logger),
		shutdownStarted: make(chan bool),
	}
	if err := s.applyHeatmapConfig(); err != nil {
		return nil, err
	}
	if err := s.restoreState(); err != nil {
		return nil, err
	}

	s.analyzer = analysis.NewAnalyzer(logger, *model, cfg.Model.NumCandidates, cfg.DetectionParams(),
		category.NewClassifier(cfg.CategoryTables()), cfg.FilterConfig(),
		s.zones, s.heat, s.labeling)
	s.analyzer.SetTargetFPS(cfg.FPS())

	if err := s.setupHttpRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) applyHeatmapConfig() error {
	cfg := s.config.Heatmap
	if cfg.Scheme != "" {
		if err := s.heat.SetColorScheme(heatmap.ColorScheme(cfg.Scheme)); err != nil {
			return err
		}
	}
	if cfg.Intensity != 0 {
		s.heat.SetIntensity(cfg.Intensity)
	}
	if cfg.Opacity != 0 {
		s.heat.SetOpacity(cfg.Opacity)
	}
	return nil
}

// restoreState loads persisted zones, labeling config and annotations into
// the in-memory engines
func (s *Server) restoreState() error {
	zoneList, err := s.configDB.LoadZones()
	if err != nil {
		return err
	}
	s.zones.Load(zoneList)

	classes, err := s.configDB.LoadLabelClasses()
	if err != nil {
		return err
	}
	s.labeling.DefineClasses(classes)

	rules, err := s.configDB.LoadLabelRules()
	if err != nil {
		return err
	}
	s.labeling.LoadRules(rules)

	anns, err := s.configDB.LoadAnnotations()
	if err != nil {
		return err
	}
	s.labeling.LoadAnnotations(anns)
	return nil
}

// Run starts the pipeline, the annotation persister, and the HTTP listener.
// It blocks until the HTTP server exits.
func (s *Server) Run(port string) error {
	s.analyzer.Start()
	s.startAnnotationPersister()

	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	s.Log.Infof("Listening on %v", port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}
	return err
}

// Shutdown stops the HTTP server and the pipeline
func (s *Server) Shutdown() {
	close(s.shutdownStarted)
	if s.httpServer != nil {
		s.httpServer.Shutdown(context.Background())
	}
	s.stopAnnotationPersister()
	s.analyzer.Close()
	s.Log.Infof("Server shut down")
}

// startAnnotationPersister watches the pipeline and writes each frame's new
// annotations to the config DB, off the pipeline thread
func (s *Server) startAnnotationPersister() {
	s.persisterStop = make(chan bool)
	s.persisterDone = make(chan bool)
	watcher := s.analyzer.AddWatcher()
	go func() {
		defer close(s.persisterDone)
		for {
			select {
			case state := <-watcher:
				if len(state.Annotations) == 0 {
					continue
				}
				if err := s.configDB.SaveAnnotations(state.Annotations); err != nil {
					s.Log.Errorf("Failed to persist annotations for frame %v: %v", state.FrameID, err)
				}
			case <-s.persisterStop:
				s.analyzer.RemoveWatcher(watcher)
				return
			}
		}
	}()
}

func (s *Server) stopAnnotationPersister() {
	if s.persisterStop == nil {
		return
	}
	close(s.persisterStop)
	<-s.persisterDone
	s.persisterStop = nil
}
