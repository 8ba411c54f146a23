// Package usecase wires the detection, scoring and advisory stages into
// the end-to-end analysis pipeline.
package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"PrivacyScanner/internal/advisory"
	"PrivacyScanner/internal/detector"
	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/features"
	"PrivacyScanner/internal/metrics"
	"PrivacyScanner/internal/ports"
	"PrivacyScanner/internal/risk"
)

// AnalyzeRequest is one analysis invocation.
type AnalyzeRequest struct {
	Text                   string
	IncludeRecommendations bool
	IncludeRewrite         bool
}

// Pipeline runs the full text → analysis flow. It is stateless per request
// and safe for concurrent use; the only shared state is the read-only
// model artifact behind the classifier.
type Pipeline struct {
	detectors  []ports.Detector
	mergeOpts  detector.MergeOptions
	extractor  *features.Extractor
	classifier ports.Classifier
	advisory   *advisory.Service
	repository ports.AnalysisRepository
	logger     *slog.Logger
}

// PipelineDeps lists pipeline collaborators. Repository may be nil when
// history persistence is disabled; Advisory is required but may wrap a nil
// advisor.
type PipelineDeps struct {
	Detectors  []ports.Detector
	MergeOpts  detector.MergeOptions
	Extractor  *features.Extractor
	Classifier ports.Classifier
	Advisory   *advisory.Service
	Repository ports.AnalysisRepository
	Logger     *slog.Logger
}

// NewPipeline assembles the pipeline.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		detectors:  deps.Detectors,
		mergeOpts:  deps.MergeOpts,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		advisory:   deps.Advisory,
		repository: deps.Repository,
		logger:     logger,
	}
}

// Analyze runs detection, merging, feature extraction, risk scoring and
// the advisory policy for one text. It never fails the request for
// detector or advisory trouble; those degrade per stage.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) domain.Analysis {
	start := time.Now()

	analysis := domain.Analysis{
		ID:        uuid.NewString(),
		InputText: req.Text,
		CreatedAt: start.UTC(),
	}

	if strings.TrimSpace(req.Text) == "" {
		// Empty input is not an error: zero entities, zero score, LOW.
		analysis.Entities = domain.CanonicalEntitySet{}
		analysis.Features = p.extractor.Extract(req.Text, nil)
		analysis.Risk = domain.RiskResult{
			Score:       0,
			Tier:        domain.TierLow,
			Probability: risk.FallbackProbability,
			ModelMode:   domain.ModeFallback,
		}
	} else {
		raw := detector.RunAll(ctx, p.detectors, req.Text, p.logger, func(name string) {
			metrics.DetectorFailuresTotal.WithLabelValues(name).Inc()
		})
		analysis.Entities = detector.Merge(raw, p.mergeOpts)
		analysis.Features = p.extractor.Extract(req.Text, analysis.Entities)
		analysis.Risk = p.classifier.Classify(analysis.Features)
	}

	if p.advisory != nil {
		analysis.Advisory = p.advisory.Run(ctx, req.Text, analysis.Entities, analysis.Risk,
			req.IncludeRecommendations, req.IncludeRewrite)
	}

	analysis.ProcessingTime = time.Since(start)

	p.observe(analysis)
	p.persist(ctx, analysis)

	p.logger.Info("analysis complete",
		"analysis_id", analysis.ID,
		"entities", len(analysis.Entities),
		"score", analysis.Risk.Score,
		"tier", analysis.Risk.Tier,
		"mode", analysis.Risk.ModelMode,
		"duration", analysis.ProcessingTime,
	)
	return analysis
}

func (p *Pipeline) observe(analysis domain.Analysis) {
	metrics.AnalysesTotal.WithLabelValues(
		string(analysis.Risk.Tier),
		string(analysis.Risk.ModelMode),
	).Inc()
	metrics.AnalysisDuration.Observe(analysis.ProcessingTime.Seconds())

	source := metrics.AdvisorySourceSkipped
	if analysis.Advisory != nil {
		source = string(analysis.Advisory.Source)
	}
	metrics.AdvisoryOutcomesTotal.WithLabelValues(source).Inc()
}

// persist is best effort: history must never fail an analysis.
func (p *Pipeline) persist(ctx context.Context, analysis domain.Analysis) {
	if p.repository == nil {
		return
	}
	if err := p.repository.SaveAnalysis(ctx, analysis); err != nil {
		p.logger.Warn("save analysis failed", "analysis_id", analysis.ID, "error", err)
	}
}
