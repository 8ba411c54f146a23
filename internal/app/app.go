// Package app wires configuration into a runnable analyzer.
package app

import (
	"context"
	"database/sql"
	"log/slog"

	_ "github.com/lib/pq"

	"PrivacyScanner/internal/advisory"
	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/detector"
	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/features"
	"PrivacyScanner/internal/infrastructure/llm"
	"PrivacyScanner/internal/infrastructure/nerdetect"
	"PrivacyScanner/internal/infrastructure/patterndetect"
	"PrivacyScanner/internal/infrastructure/profile"
	"PrivacyScanner/internal/infrastructure/storage"
	"PrivacyScanner/internal/logging"
	"PrivacyScanner/internal/ports"
	"PrivacyScanner/internal/risk"
	"PrivacyScanner/internal/usecase"
)

// Application wires configs to the pipeline and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	profiles ports.ProfileSource
	history  ports.AnalysisRepository
	loader   *risk.Loader
	db       *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := detector.NewRegistry()
	registry.Register(patterndetect.New())
	registry.Register(nerdetect.New())

	loader := risk.NewLoader(cfg.Risk.ArtifactPath, logging.Component(baseLogger, "risk.loader"))
	if err := loader.Load(); err != nil {
		// Scoring degrades to fallback mode until a usable artifact
		// appears; the process stays up.
		baseLogger.Warn("trained model unavailable, scoring in fallback mode", "error", err)
	}
	classifier := risk.NewClassifier(cfg.Risk, loader, logging.Component(baseLogger, "risk"))

	var advisor ports.Advisor
	if client := llm.NewOpenAIAdvisor(cfg.Advisory); client != nil {
		advisor = client
	}
	advisoryService := advisory.NewService(advisor, cfg.Advisory.Timeout,
		logging.Component(baseLogger, "advisory"))

	var db *sql.DB
	var history ports.AnalysisRepository
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("history database unavailable, persistence disabled", "error", err)
		} else {
			db = opened
			history = storage.NewPostgresRepository(db)
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Detectors:  registry.All(),
		MergeOpts:  detector.MergeOptions{PreferPattern: cfg.Merge.PreferPattern},
		Extractor:  features.NewExtractor(cfg.Features.SensitiveKeywords),
		Classifier: classifier,
		Advisory:   advisoryService,
		Repository: history,
		Logger:     logging.Component(baseLogger, "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		profiles: profile.NewFetcher(cfg.Profile),
		history:  history,
		loader:   loader,
		db:       db,
	}
}

// Start launches background work: the model artifact watcher, when
// enabled. It returns immediately.
func (a *Application) Start(ctx context.Context) {
	if a.cfg.Risk.WatchArtifact {
		if err := a.loader.Watch(ctx); err != nil {
			a.logger.Warn("model artifact watcher unavailable", "error", err)
		}
	}
}

// Analyze runs one text through the pipeline.
func (a *Application) Analyze(ctx context.Context, req usecase.AnalyzeRequest) domain.Analysis {
	return a.pipeline.Analyze(ctx, req)
}

// AnalyzeProfile fetches a public profile's visible text and analyzes it.
func (a *Application) AnalyzeProfile(ctx context.Context, profileURL string, req usecase.AnalyzeRequest) (domain.Analysis, error) {
	text, err := a.profiles.FetchText(ctx, profileURL)
	if err != nil {
		return domain.Analysis{}, err
	}
	req.Text = text
	return a.pipeline.Analyze(ctx, req), nil
}

// History returns recent persisted analyses, or nil when persistence is
// disabled.
func (a *Application) History(ctx context.Context, limit int) ([]domain.Analysis, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.RecentAnalyses(ctx, limit)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
