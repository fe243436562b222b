// Package report generates narrative planning reports for a postcode,
// reusing a recent cached analysis when one exists.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/analysis"
	"github.com/sells-group/planpilot/internal/cache"
	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/monitoring"
)

// Analyzer runs a fresh analysis on a cache miss.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*model.AnalysisResult, error)
}

// Service generates reports.
type Service struct {
	cache    cache.Store
	analyzer Analyzer
	writer   Writer
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// NewService creates a report Service. A nil store always re-runs the analysis.
func NewService(store cache.Store, analyzer Analyzer, writer Writer, metrics *monitoring.Metrics) *Service {
	return &Service{
		cache:    store,
		analyzer: analyzer,
		writer:   writer,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Generate returns a report for postcode. Analysis errors pass through
// unchanged; a writer failure is an *analysis.UpstreamError.
func (s *Service) Generate(ctx context.Context, postcode string) (*model.ReportResponse, error) {
	postcode = model.NormalizePostcode(postcode)
	if postcode == "" {
		return nil, &analysis.InputError{Err: eris.New("postcode is required")}
	}

	result, fromCache := s.lookup(ctx, postcode)
	if !fromCache {
		var err error
		result, err = s.analyzer.Analyze(ctx, analysis.Request{Postcode: postcode})
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	rep, err := s.writer.Write(ctx, result)
	if err != nil {
		zap.L().Error("report: writer failed", zap.String("postcode", postcode), zap.Error(err))
		return nil, &analysis.UpstreamError{Stage: "report", Err: err}
	}

	zap.L().Info("report: generated",
		zap.String("postcode", postcode),
		zap.Bool("from_cache", fromCache),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &model.ReportResponse{
		ID:          uuid.NewString(),
		Postcode:    postcode,
		Report:      rep,
		FromCache:   fromCache,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *Service) lookup(ctx context.Context, postcode string) (*model.AnalysisResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	result, ok := s.cache.Get(ctx, postcode)
	if ok {
		s.metrics.Analysis(monitoring.OutcomeCached)
	}
	return result, ok
}
