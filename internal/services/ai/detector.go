package ai

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"cityguard/internal/logger"
	"cityguard/internal/model"
)

var (
	// ErrModelUnavailable means the detection network failed to load or run.
	ErrModelUnavailable = errors.New("detection network not initialized")
	// ErrImageUnreadable means the input bytes could not be decoded as an image.
	ErrImageUnreadable = errors.New("image could not be decoded")
)

const inputSize = 300 // SSD MobileNet input resolution

// RawDetection is one object emitted by the detection network before
// violation classification.
type RawDetection struct {
	ClassID    int
	ClassName  string
	Confidence float64
	BBox       model.BoundingBox
}

// Output carries one inference pass: the detections in emission order plus
// the decoded image dimensions the boxes are relative to.
type Output struct {
	Detections  []RawDetection
	ImageWidth  int
	ImageHeight int
}

// DetectorService wraps a single DNN model handle. The handle is loaded once
// and shared; inference calls are serialized because the underlying network
// is not safe for concurrent forward passes.
type DetectorService struct {
	net        gocv.Net
	loaded     bool
	modelPath  string
	configPath string
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewDetectorService loads the detection network. A missing model is logged
// and leaves the service constructed but unavailable, so the rest of the
// application still starts.
func NewDetectorService(modelPath, configPath string, log *logger.Logger) *DetectorService {
	service := &DetectorService{
		modelPath:  modelPath,
		configPath: configPath,
		logger:     log,
	}

	if err := service.initializeNet(); err != nil {
		service.logger.Warning("Could not initialize detection network: %v", err)
		return service
	}

	return service
}

// initializeNet loads the network from the model and config files.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.loaded = true
	s.logger.Info("Detection network initialized: %s", s.modelPath)
	return nil
}

// Available reports whether the network loaded successfully.
func (s *DetectorService) Available() bool {
	return s.loaded
}

// DetectObjects runs one inference pass over the image bytes. Boxes below the
// confidence threshold are dropped and overlapping boxes are suppressed with
// the IOU threshold.
func (s *DetectorService) DetectObjects(imageBytes []byte, confThreshold, iouThreshold float64) (*Output, error) {
	if !s.loaded {
		return nil, ErrModelUnavailable
	}

	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, ErrImageUnreadable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(inputSize, inputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	forward := s.net.Forward("")
	defer forward.Close()

	cols := mat.Cols()
	rows := mat.Rows()

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int

	reshaped := forward.Reshape(1, forward.Total()/7)
	defer reshaped.Close()
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := float64(reshaped.GetFloatAt(i, 2))
		if confidence < confThreshold {
			continue
		}

		x1 := int(reshaped.GetFloatAt(i, 3) * float32(cols))
		y1 := int(reshaped.GetFloatAt(i, 4) * float32(rows))
		x2 := int(reshaped.GetFloatAt(i, 5) * float32(cols))
		y2 := int(reshaped.GetFloatAt(i, 6) * float32(rows))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		scores = append(scores, float32(confidence))
		classIDs = append(classIDs, int(reshaped.GetFloatAt(i, 1)))
	}

	output := &Output{ImageWidth: cols, ImageHeight: rows}
	if len(boxes) == 0 {
		return output, nil
	}

	indices := gocv.NMSBoxes(boxes, scores, float32(confThreshold), float32(iouThreshold))
	for _, idx := range indices {
		box := boxes[idx]
		output.Detections = append(output.Detections, RawDetection{
			ClassID:    classIDs[idx],
			ClassName:  ClassLabel(classIDs[idx]),
			Confidence: float64(scores[idx]),
			BBox: model.BoundingBox{
				X:      float64(box.Min.X),
				Y:      float64(box.Min.Y),
				Width:  float64(box.Dx()),
				Height: float64(box.Dy()),
			},
		})
	}

	return output, nil
}

// DrawDetections renders classified boxes onto the image, colored by
// severity, and returns the annotated JPEG bytes.
func (s *DetectorService) DrawDetections(detections []model.Detection, img []byte) ([]byte, error) {
	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}
	defer mat.Close()

	for _, detection := range detections {
		boxColor := severityDrawColor(detection.Severity)
		rect := image.Rect(int(detection.BBox.X), int(detection.BBox.Y),
			int(detection.BBox.X+detection.BBox.Width), int(detection.BBox.Y+detection.BBox.Height))
		if err := gocv.Rectangle(&mat, rect, boxColor, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s (%.2f)", detection.ClassName, detection.Confidence)
		if detection.ViolationCategory != "" {
			label = fmt.Sprintf("%s (%.2f)", detection.ViolationCategory, detection.Confidence)
		}
		pt := image.Pt(int(detection.BBox.X), int(detection.BBox.Y)-5)
		if err := gocv.PutText(&mat, label, pt, gocv.FontHersheySimplex, 0.5, boxColor, 1); err != nil {
			return nil, fmt.Errorf("failed to draw text: %w", err)
		}
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	annotated := make([]byte, len(buf.GetBytes()))
	copy(annotated, buf.GetBytes())
	return annotated, nil
}

// ModelInfo describes the loaded model for the API surface.
func (s *DetectorService) ModelInfo(confThreshold, iouThreshold float64) map[string]interface{} {
	if !s.loaded {
		return map[string]interface{}{"status": "model not loaded"}
	}
	return map[string]interface{}{
		"model_type":           "SSD MobileNet",
		"model_path":           s.modelPath,
		"confidence_threshold": confThreshold,
		"iou_threshold":        iouThreshold,
	}
}

func severityDrawColor(severity model.ViolationSeverity) color.RGBA {
	switch severity {
	case model.SeverityCritical, model.SeverityHigh:
		return color.RGBA{R: 255, G: 0, B: 0, A: 0}
	case model.SeverityMedium:
		return color.RGBA{R: 255, G: 165, B: 0, A: 0}
	case model.SeverityLow:
		return color.RGBA{R: 255, G: 255, B: 0, A: 0}
	default:
		return color.RGBA{R: 0, G: 255, B: 0, A: 0}
	}
}

// cocoLabels maps SSD MobileNet COCO class ids to names. Only classes the
// classifier cares about plus common street objects are listed.
var cocoLabels = map[int]string{
	1:  "person",
	2:  "bicycle",
	3:  "car",
	4:  "motorcycle",
	6:  "bus",
	8:  "truck",
	15: "bench",
	28: "umbrella",
	44: "bottle",
	47: "cup",
	51: "bowl",
	62: "chair",
	63: "couch",
	65: "bed",
}

// ClassLabel resolves a class id to its name; unknown ids keep the id in the
// name so nothing is silently dropped.
func ClassLabel(classID int) string {
	if label, exists := cocoLabels[classID]; exists {
		return label
	}
	return fmt.Sprintf("unknown_%d", classID)
}
