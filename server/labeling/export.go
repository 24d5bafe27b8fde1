package labeling

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// COCO-style export shapes. Box coordinates are pixel-space [x, y, w, h].

type CocoImage struct {
	ID       int64  `json:"id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileName string `json:"file_name"`
}

type CocoCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CocoAnnotation struct {
	ID         int64   `json:"id"`
	ImageID    int64   `json:"image_id"`
	CategoryID int     `json:"category_id"`
	Bbox       [4]int  `json:"bbox"`
	Area       int     `json:"area"`
	Score      float32 `json:"score"`
}

type CocoDataset struct {
	Images      []CocoImage      `json:"images"`
	Annotations []CocoAnnotation `json:"annotations"`
	Categories  []CocoCategory   `json:"categories"`
}

// ExportCOCO flattens the annotation collection into a COCO-style dataset.
// Categories are the defined custom classes, in definition order, with IDs
// starting at 0. Annotations whose class is not in the class list are skipped.
// Frames appear in the order they first received an annotation.
func (e *Engine) ExportCOCO(imageWidth, imageHeight int) *CocoDataset {
	e.lock.Lock()
	defer e.lock.Unlock()

	out := &CocoDataset{
		Images:      []CocoImage{},
		Annotations: []CocoAnnotation{},
		Categories:  []CocoCategory{},
	}
	classIndex := map[string]int{}
	for i, c := range e.classes {
		classIndex[c.Name] = i
		out.Categories = append(out.Categories, CocoCategory{ID: i, Name: c.Name})
	}

	for _, frameID := range e.frameOrder {
		anns := e.annotations[frameID]
		if len(anns) == 0 {
			continue
		}
		out.Images = append(out.Images, CocoImage{
			ID:       frameID,
			Width:    imageWidth,
			Height:   imageHeight,
			FileName: frameImageName(frameID),
		})
		for _, ann := range anns {
			catID, ok := classIndex[ann.Class]
			if !ok {
				continue
			}
			out.Annotations = append(out.Annotations, CocoAnnotation{
				ID:         ann.ID,
				ImageID:    frameID,
				CategoryID: catID,
				Bbox:       [4]int{ann.Box.X, ann.Box.Y, ann.Box.Width, ann.Box.Height},
				Area:       ann.Box.Area(),
				Score:      ann.Confidence,
			})
		}
	}
	return out
}

// ExportYOLOLines renders one frame's annotations as YOLO label lines:
// "classIndex centerX centerY width height", all coordinates normalized to
// [0,1] by the image dimensions. Annotations with unknown classes are skipped.
func (e *Engine) ExportYOLOLines(frameID int64, imageWidth, imageHeight int) []string {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.yoloLinesLocked(frameID, imageWidth, imageHeight)
}

func (e *Engine) yoloLinesLocked(frameID int64, imageWidth, imageHeight int) []string {
	classIndex := map[string]int{}
	for i, c := range e.classes {
		classIndex[c.Name] = i
	}
	lines := []string{}
	for _, ann := range e.annotations[frameID] {
		catID, ok := classIndex[ann.Class]
		if !ok {
			continue
		}
		cx := (float64(ann.Box.X) + float64(ann.Box.Width)/2) / float64(imageWidth)
		cy := (float64(ann.Box.Y) + float64(ann.Box.Height)/2) / float64(imageHeight)
		w := float64(ann.Box.Width) / float64(imageWidth)
		h := float64(ann.Box.Height) / float64(imageHeight)
		lines = append(lines, fmt.Sprintf("%v %.6f %.6f %.6f %.6f", catID, cx, cy, w, h))
	}
	return lines
}

// ExportDataset writes the whole annotation collection as a training dataset
// archive:
//
//	images/frame_<id>.jpg      (when the caller can supply the frame image)
//	annotations/frame_<id>.txt (YOLO label lines)
//	classes.txt                (one class name per line, in index order)
//
// 'images' maps frame IDs to encoded JPEG bytes; frames with no image still
// get their label file, so a partial archive remains usable for re-labeling.
func (e *Engine) ExportDataset(w io.Writer, imageWidth, imageHeight int, images map[int64][]byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	zipWriter := zip.NewWriter(w)

	for _, frameID := range e.frameOrder {
		lines := e.yoloLinesLocked(frameID, imageWidth, imageHeight)
		if len(lines) == 0 {
			continue
		}
		labelZ, err := zipWriter.Create(fmt.Sprintf("annotations/frame_%v.txt", frameID))
		if err != nil {
			return err
		}
		if _, err := io.WriteString(labelZ, strings.Join(lines, "\n")+"\n"); err != nil {
			return err
		}
		if img, ok := images[frameID]; ok {
			imageZ, err := zipWriter.Create("images/" + frameImageName(frameID))
			if err != nil {
				return err
			}
			if _, err := imageZ.Write(img); err != nil {
				return err
			}
		}
	}

	names := make([]string, 0, len(e.classes))
	for _, c := range e.classes {
		names = append(names, c.Name)
	}
	classesZ, err := zipWriter.Create("classes.txt")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(classesZ, strings.Join(names, "\n")+"\n"); err != nil {
		return err
	}
	return zipWriter.Close()
}

// WriteCOCO encodes the COCO dataset as JSON
func (e *Engine) WriteCOCO(w io.Writer, imageWidth, imageHeight int) error {
	return json.NewEncoder(w).Encode(e.ExportCOCO(imageWidth, imageHeight))
}

func frameImageName(frameID int64) string {
	return fmt.Sprintf("frame_%v.jpg", frameID)
}
