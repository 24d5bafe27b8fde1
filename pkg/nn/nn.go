package nn

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// Package nn holds the detection data model, and the numeric post-processing
// that turns raw object detection model output into usable detections.
// The model itself (weights, inference runtime) lives outside this system;
// we only consume its output buffer.

const DefaultConfidenceThreshold = 0.5
const DefaultNmsIouThreshold = 0.45

// Detection is an object that the detection model found in a frame.
// Box is in original image pixel space. Once a frame's pipeline run has
// emitted its detections, they are never mutated.
type Detection struct {
	Class      int     `json:"class"`
	Confidence float32 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// Results of decoding + suppression on a single frame
type DetectionResult struct {
	FrameID     int64       `json:"frameID"`
	ImageWidth  int         `json:"imageWidth"`
	ImageHeight int         `json:"imageHeight"`
	Objects     []Detection `json:"objects"`
	FramePTS    time.Time   `json:"framePTS"`
}

// Detection post-processing parameters
type DetectionParams struct {
	ConfidenceThreshold float32 // Value between 0 and 1. Lower values will find more objects. Zero value will use the default.
	NmsIouThreshold     float32 // Value between 0 and 1. Lower values will merge more objects together into one. Zero value will use the default.
}

// Create a default DetectionParams object
func NewDetectionParams() *DetectionParams {
	return &DetectionParams{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		NmsIouThreshold:     DefaultNmsIouThreshold,
	}
}

// ModelConfig describes the detection model whose output we decode.
// It is saved in a JSON file alongside the model weights.
type ModelConfig struct {
	Architecture string   `json:"architecture"` // eg "yolov8"
	Width        int      `json:"width"`        // Fixed model input width, eg 640
	Height       int      `json:"height"`       // Fixed model input height, eg 640
	Classes      []string `json:"classes"`      // eg ["person", "bicycle", "car", ...]
}

// ClassName returns the raw class name for a class index, or "" if out of range.
func (c *ModelConfig) ClassName(class int) string {
	if class < 0 || class >= len(c.Classes) {
		return ""
	}
	return c.Classes[class]
}

// Load model config from a JSON file
func LoadModelConfig(filename string) (*ModelConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config := &ModelConfig{}
	err = json.Unmarshal(b, config)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Load a text file with class names on each line
func LoadClassFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	classes := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			classes = append(classes, line)
		}
	}
	return classes, nil
}
