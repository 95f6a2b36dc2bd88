package services

import (
	"fmt"
	"sync"
	"time"

	"cityguard/internal/config"
	"cityguard/internal/logger"
	"cityguard/internal/model"
	"cityguard/internal/repository"
	"cityguard/internal/services/ai"
	"cityguard/internal/services/storage"
	"cityguard/internal/services/websocket"
	"cityguard/internal/violation"
)

// DetectOptions are the per-request knobs of a detection pass. Zero
// thresholds fall back to the configured defaults.
type DetectOptions struct {
	ConfidenceThreshold  float64
	IOUThreshold         float64
	EnableClassification bool
	SaveResult           bool
}

// BatchOutcome is the summary of one batch detection pass.
type BatchOutcome struct {
	Results        []model.DetectionResult   `json:"results"`
	FailedFiles    []string                  `json:"failed_files"`
	TotalProcessed int                       `json:"total_processed"`
	Statistics     violation.BatchStatistics `json:"statistics"`
	ProcessingTime float64                   `json:"processing_time"`
}

// BatchFile is one upload inside a batch request.
type BatchFile struct {
	Filename string
	Content  []byte
}

// Manager runs the detection pipeline: file store, detector, classifier,
// aggregator, result store and event hub.
type Manager struct {
	detectorPool chan *ai.DetectorService
	fileService  *storage.FileService
	analysis     *ai.AnalysisService
	results      repository.ResultRepository
	hub          *websocket.HubService
	config       *config.Config
	logger       *logger.Logger
}

// NewManager wires the pipeline. One detector instance per worker keeps
// inference parallel without sharing a network handle across goroutines.
func NewManager(detectors []*ai.DetectorService, fileService *storage.FileService,
	analysis *ai.AnalysisService, results repository.ResultRepository,
	hub *websocket.HubService, cfg *config.Config, log *logger.Logger) *Manager {

	pool := make(chan *ai.DetectorService, len(detectors))
	for _, d := range detectors {
		pool <- d
	}

	return &Manager{
		detectorPool: pool,
		fileService:  fileService,
		analysis:     analysis,
		results:      results,
		hub:          hub,
		config:       cfg,
		logger:       log,
	}
}

// FileService exposes the file store to the handlers.
func (m *Manager) FileService() *storage.FileService {
	return m.fileService
}

// AnalysisService exposes the image analysis service to the handlers.
func (m *Manager) AnalysisService() *ai.AnalysisService {
	return m.analysis
}

// Results exposes the result repository to the handlers.
func (m *Manager) Results() repository.ResultRepository {
	return m.results
}

// Hub exposes the websocket hub to the handlers.
func (m *Manager) Hub() *websocket.HubService {
	return m.hub
}

// ModelInfo reports the loaded detector's configuration.
func (m *Manager) ModelInfo() map[string]interface{} {
	detector := <-m.detectorPool
	defer func() { m.detectorPool <- detector }()
	return detector.ModelInfo(m.config.ConfidenceThreshold, m.config.IOUThreshold)
}

// DetectorAvailable reports whether detection can run.
func (m *Manager) DetectorAvailable() bool {
	detector := <-m.detectorPool
	defer func() { m.detectorPool <- detector }()
	return detector.Available()
}

// ProcessImage runs the full pipeline for one upload: store the file, run
// inference, classify and enrich each detection, aggregate, optionally
// persist, and broadcast the result event.
func (m *Manager) ProcessImage(filename string, content []byte, opts DetectOptions) (*model.DetectionResult, error) {
	start := time.Now()

	stored, err := m.fileService.SaveUpload(filename, content)
	if err != nil {
		return nil, err
	}

	confThreshold := opts.ConfidenceThreshold
	if confThreshold <= 0 {
		confThreshold = m.config.ConfidenceThreshold
	}
	iouThreshold := opts.IOUThreshold
	if iouThreshold <= 0 {
		iouThreshold = m.config.IOUThreshold
	}

	detector := <-m.detectorPool
	output, err := detector.DetectObjects(content, confThreshold, iouThreshold)
	m.detectorPool <- detector
	if err != nil {
		return nil, fmt.Errorf("detection failed for %s: %w", filename, err)
	}

	detections := make([]model.Detection, 0, len(output.Detections))
	for _, raw := range output.Detections {
		det := model.Detection{
			ClassID:    raw.ClassID,
			ClassName:  raw.ClassName,
			Confidence: raw.Confidence,
			BBox:       raw.BBox,
			Area:       raw.BBox.Area(),
		}
		if opts.EnableClassification {
			det.ViolationCategory = violation.Classify(raw.ClassName, raw.BBox, output.ImageWidth, output.ImageHeight)
			violation.Enrich(&det)
		}
		detections = append(detections, det)
	}

	result := &model.DetectionResult{
		ImagePath:           stored.FilePath,
		ImageInfo:           stored.ImageInfo(),
		Detections:          detections,
		TotalViolations:     len(detections),
		ConfidenceThreshold: confThreshold,
		IOUThreshold:        iouThreshold,
		ProcessingTime:      time.Since(start).Seconds(),
		CreatedAt:           time.Now().UTC(),
		Status:              model.StatusDetected,
	}

	if opts.SaveResult {
		id, err := m.results.Insert(result)
		if err != nil {
			return nil, fmt.Errorf("failed to save result: %w", err)
		}
		result.ID = id

		m.hub.BroadcastEvent(websocket.ResultEvent{
			ResultID:        id,
			ImageFilename:   stored.OriginalFilename,
			TotalViolations: result.TotalViolations,
			Status:          string(result.Status),
			CreatedAt:       result.CreatedAt,
		})
	}

	m.logger.Info("Processed %s: %d detections in %.3fs", filename, len(detections), result.ProcessingTime)
	return result, nil
}

// ProcessBatch runs ProcessImage over the files with a bounded worker pool.
// A failing file is recorded and does not stop the rest of the batch.
func (m *Manager) ProcessBatch(files []BatchFile, opts DetectOptions) *BatchOutcome {
	start := time.Now()

	type indexed struct {
		index  int
		result *model.DetectionResult
		name   string
		err    error
	}

	tasks := make(chan int)
	outcomes := make(chan indexed, len(files))

	workers := m.config.DetectionWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				result, err := m.ProcessImage(files[i].Filename, files[i].Content, opts)
				outcomes <- indexed{index: i, result: result, name: files[i].Filename, err: err}
			}
		}()
	}

	for i := range files {
		tasks <- i
	}
	close(tasks)
	wg.Wait()
	close(outcomes)

	collected := make([]*model.DetectionResult, len(files))
	outcome := &BatchOutcome{}
	for item := range outcomes {
		if item.err != nil {
			m.logger.Error("Batch file %s failed: %v", item.name, item.err)
			outcome.FailedFiles = append(outcome.FailedFiles, item.name)
			continue
		}
		collected[item.index] = item.result
	}

	// input order, minus failures
	for _, result := range collected {
		if result != nil {
			outcome.Results = append(outcome.Results, *result)
		}
	}

	outcome.TotalProcessed = len(outcome.Results)
	outcome.Statistics = violation.AggregateBatch(outcome.Results)
	outcome.ProcessingTime = time.Since(start).Seconds()
	return outcome
}
