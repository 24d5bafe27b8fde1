// Package config loads the top-level JSON config file
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/arguscam/argus/pkg/category"
	"github.com/arguscam/argus/pkg/nn"
)

type Model struct {
	ConfigFile    string `json:"configFile"`    // Path to the model's JSON config (architecture, input size, class list)
	NumCandidates int    `json:"numCandidates"` // Number of candidate boxes in the model's output tensor, eg 8400 for yolov8 at 640x640
}

type Analysis struct {
	ConfidenceThreshold float32 `json:"confidenceThreshold"` // Zero value uses the default
	NmsIouThreshold     float32 `json:"nmsIouThreshold"`     // Zero value uses the default
	TargetFPS           int     `json:"targetFPS"`           // Frames per second offered to the pipeline. Zero value uses the default.
}

type Heatmap struct {
	GridSize  int     `json:"gridSize"`  // Cell size in pixels. Zero value uses the default.
	Scheme    string  `json:"scheme"`    // hot, cool or rainbow
	Intensity float32 `json:"intensity"` // Falloff radius multiplier
	Opacity   float32 `json:"opacity"`   // Alpha of the rendered overlay
}

type Config struct {
	Model      Model            `json:"model"`
	Analysis   Analysis         `json:"analysis"`
	Heatmap    Heatmap          `json:"heatmap"`
	Categories []category.Table `json:"categories"` // Empty uses the default tables
	Disabled   []string         `json:"disabled"`   // Category names excluded from analysis
	DBPath     string           `json:"dbPath"`     // Path to the sqlite config database
}

const DefaultTargetFPS = 10

func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		filename = "argus.json"
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error loading %v: %w", filename, err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("Error loading as JSON %v: %w", filename, err)
	}
	return cfg, nil
}

// DetectionParams builds the pipeline thresholds, falling back to defaults
// for zero values
func (c *Config) DetectionParams() *nn.DetectionParams {
	params := nn.NewDetectionParams()
	if c.Analysis.ConfidenceThreshold != 0 {
		params.ConfidenceThreshold = c.Analysis.ConfidenceThreshold
	}
	if c.Analysis.NmsIouThreshold != 0 {
		params.NmsIouThreshold = c.Analysis.NmsIouThreshold
	}
	return params
}

// CategoryTables returns the configured tables, or the defaults
func (c *Config) CategoryTables() []category.Table {
	if len(c.Categories) != 0 {
		return c.Categories
	}
	return category.DefaultTables()
}

// FilterConfig builds the category filter from the thresholds and the
// disabled list
func (c *Config) FilterConfig() category.FilterConfig {
	filter := category.DefaultFilterConfig()
	if c.Analysis.ConfidenceThreshold != 0 {
		filter.MinConfidence = c.Analysis.ConfidenceThreshold
	}
	for _, name := range c.Disabled {
		filter.Enabled[category.Category(name)] = false
	}
	return filter
}

func (c *Config) FPS() int {
	if c.Analysis.TargetFPS > 0 {
		return c.Analysis.TargetFPS
	}
	return DefaultTargetFPS
}
