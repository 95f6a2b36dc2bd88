package app

import (
	"fmt"
	"net/http"

	"cityguard/internal/config"
	"cityguard/internal/legal"
	"cityguard/internal/logger"
	"cityguard/internal/repository/sqlite"
	"cityguard/internal/routes"
	"cityguard/internal/services"
	"cityguard/internal/services/ai"
	"cityguard/internal/services/storage"
	"cityguard/internal/services/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	hubService *websocket.HubService
	manager    *services.Manager
	analyzer   legal.Analyzer
	llm        *legal.LLMAnalyzer
	llmConfig  legal.LLMConfig
	kb         *legal.KnowledgeBase
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	results := sqlite.NewResultRepository(db)

	fileService, err := storage.NewFileService(cfg.UploadDirectory, cfg.ResultDirectory,
		cfg.ThumbnailDirectory, cfg.MaxUploadSizeMB, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing storage: %w", err)
	}

	detectors := make([]*ai.DetectorService, 0, cfg.DetectionWorkers)
	for i := 0; i < cfg.DetectionWorkers; i++ {
		detectors = append(detectors, ai.NewDetectorService(cfg.ModelPath, cfg.ModelConfigPath, log))
	}

	hub := websocket.NewHubService(log)
	manager := services.NewManager(detectors, fileService, ai.NewAnalysisService(), results, hub, cfg, log)

	kb := legal.NewKnowledgeBase()
	llmConfig := legal.LLMConfig{
		Enabled:     cfg.LLMEnabled,
		APIEndpoint: cfg.LLMAPIEndpoint,
		APIKey:      cfg.LLMAPIKey,
		ModelName:   cfg.LLMModelName,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	}
	llm := legal.NewLLMAnalyzer(llmConfig, log)

	var analyzer legal.Analyzer = legal.RuleAnalyzer{}
	if llm.Enabled() {
		analyzer = llm
	}

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		hubService: hub,
		manager:    manager,
		analyzer:   analyzer,
		llm:        llm,
		llmConfig:  llmConfig,
		kb:         kb,
	}, nil
}

func (a *App) Run() error {
	go a.hubService.Run()

	router := routes.SetupRoutes(a.manager, a.analyzer, a.llm, a.llmConfig, a.kb, a.config, a.logger)

	a.logger.Info("CityGuard server listening on :%d", a.config.Port)
	a.logger.Info("Database: %s", a.config.DatabasePath)
	a.logger.Info("Model: %s (available: %v)", a.config.ModelPath, a.manager.DetectorAvailable())
	a.logger.Info("Uploads: %s", a.config.UploadDirectory)

	defer a.db.Close()
	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}
