// Package analysis runs the viability pipeline for a postcode: geocode, fetch
// the four data groups concurrently, apply overrides, predict approval, score
// viability, and cache the result.
package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/cache"
	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/monitoring"
	"github.com/sells-group/planpilot/internal/predict"
	"github.com/sells-group/planpilot/internal/provider"
	"github.com/sells-group/planpilot/internal/viability"
)

// Default lookup settings.
const (
	DefaultProviderTimeout = 12 * time.Second
	DefaultPlanningRadiusM = 500
)

// Provider names used in logs, metrics and UpstreamError.Providers.
const (
	ProviderGeocoder    = "geocoder"
	ProviderConstraints = "constraints"
	ProviderPlanning    = "planning"
	ProviderMarket      = "market"
	ProviderSchools     = "schools"
)

// Providers groups the data sources an analysis depends on.
type Providers struct {
	Geocoder    provider.Geocoder
	Constraints provider.ConstraintProvider
	Planning    provider.PlanningProvider
	Market      provider.MarketProvider
	Schools     provider.SchoolsProvider
}

// Request is one analysis request. A nil Project, or nil fields within it,
// use the default project.
type Request struct {
	Postcode  string
	Project   *model.ProjectInput
	Overrides model.Overrides
}

// Analyzer runs analyses. It keeps no per-request state and is safe for
// concurrent use.
type Analyzer struct {
	providers       Providers
	predictor       *predict.Predictor
	cache           cache.Store
	metrics         *monitoring.Metrics
	providerTimeout time.Duration
	planningRadiusM int
	now             func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithProviderTimeout bounds each geocoder and provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.providerTimeout = d
		}
	}
}

// WithPlanningRadius sets the radius passed to the planning provider.
func WithPlanningRadius(m int) Option {
	return func(a *Analyzer) {
		if m > 0 {
			a.planningRadiusM = m
		}
	}
}

// WithMetrics records outcomes and provider latency.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithClock replaces time.Now for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// New creates an Analyzer. A nil store disables caching.
func New(providers Providers, predictor *predict.Predictor, store cache.Store, opts ...Option) *Analyzer {
	a := &Analyzer{
		providers:       providers,
		predictor:       predictor,
		cache:           store,
		providerTimeout: DefaultProviderTimeout,
		planningRadiusM: DefaultPlanningRadiusM,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Predictor returns the predictor the Analyzer scores with.
func (a *Analyzer) Predictor() *predict.Predictor {
	return a.predictor
}

// Analyze runs the full pipeline. Errors are *InputError or *UpstreamError.
// Nothing is cached when an error is returned.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	result, err := a.analyze(ctx, req)
	switch {
	case err == nil:
		a.metrics.Analysis(monitoring.OutcomeOK)
	case IsInputError(err):
		a.metrics.Analysis(monitoring.OutcomeInput)
	default:
		a.metrics.Analysis(monitoring.OutcomeUpstream)
	}
	return result, err
}

func (a *Analyzer) analyze(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	start := time.Now()

	postcode := model.NormalizePostcode(req.Postcode)
	if postcode == "" {
		return nil, &InputError{Err: eris.New("postcode is required")}
	}

	project := req.Project.Resolve()
	if err := project.Validate(); err != nil {
		return nil, &InputError{Err: err}
	}
	if err := req.Overrides.Validate(); err != nil {
		return nil, &InputError{Err: err}
	}

	log := zap.L().With(zap.String("postcode", postcode))

	loc, err := a.geocode(ctx, postcode)
	if err != nil {
		return nil, err
	}

	data, err := a.fetch(ctx, loc, postcode)
	if err != nil {
		log.Warn("analysis: fetch failed", zap.Error(err))
		return nil, err
	}

	constraints := mergeConstraints(data.constraints, req.Overrides)
	planning := mergePlanning(data.planning, req.Overrides)
	market := mergeMarket(data.market, req.Overrides)

	prediction := a.predictor.Predict(predict.Input{
		Constraints: constraints,
		Planning:    planning,
		Market:      market,
		Project:     project,
	})
	a.metrics.Prediction(prediction.Mode)

	score, breakdown := viability.Score(viability.Input{
		Probability: prediction.ApprovalProbability,
		Constraints: constraints,
		Market:      market,
		Project:     project,
	})

	result := &model.AnalysisResult{
		Postcode:           postcode,
		Location:           loc,
		Constraints:        constraints,
		PlanningMetrics:    planning,
		MarketMetrics:      market,
		Schools:            data.schools,
		MLPrediction:       prediction,
		ViabilityScore:     score,
		ViabilityBreakdown: breakdown,
		ProjectParams:      project,
		OverridesApplied:   req.Overrides.Applied(),
		GeneratedAt:        a.now().UTC(),
	}

	if a.cache != nil {
		a.cache.Put(ctx, postcode, result)
	}

	log.Info("analysis: complete",
		zap.Float64("viability_score", score),
		zap.Float64("approval_probability", prediction.ApprovalProbability),
		zap.String("mode", prediction.Mode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

func (a *Analyzer) geocode(ctx context.Context, postcode string) (model.Location, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.providerTimeout)
	defer cancel()

	start := time.Now()
	loc, err := a.providers.Geocoder.Resolve(callCtx, postcode)
	if errors.Is(err, provider.ErrNotFound) {
		a.metrics.Provider(ProviderGeocoder, time.Since(start), nil)
		return model.Location{}, &InputError{Err: eris.Wrapf(ErrLocationNotFound, "postcode %s", postcode)}
	}
	a.metrics.Provider(ProviderGeocoder, time.Since(start), err)
	if err != nil {
		return model.Location{}, &UpstreamError{Stage: "geocode", Providers: []string{ProviderGeocoder}, Err: err}
	}
	return loc, nil
}

type fetched struct {
	constraints model.Constraints
	planning    model.PlanningMetrics
	market      model.MarketMetrics
	schools     []model.School
}

// fetch queries the four providers concurrently and waits for all of them.
// Any failure fails the whole fetch; the failures are joined into one error.
func (a *Analyzer) fetch(ctx context.Context, loc model.Location, postcode string) (fetched, error) {
	var out fetched
	names := []string{ProviderConstraints, ProviderPlanning, ProviderMarket, ProviderSchools}
	calls := []func(context.Context) error{
		func(ctx context.Context) (err error) {
			out.constraints, err = a.providers.Constraints.Lookup(ctx, loc.Lat, loc.Lon)
			return err
		},
		func(ctx context.Context) (err error) {
			out.planning, err = a.providers.Planning.Lookup(ctx, loc.Lat, loc.Lon, a.planningRadiusM)
			return err
		},
		func(ctx context.Context) (err error) {
			out.market, err = a.providers.Market.Lookup(ctx, loc.Lat, loc.Lon, postcode)
			return err
		},
		func(ctx context.Context) (err error) {
			out.schools, err = a.providers.Schools.Lookup(ctx, loc.Lat, loc.Lon)
			return err
		},
	}

	// Every call runs to completion so that all failures are reported together.
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() {
			callCtx, cancel := context.WithTimeout(ctx, a.providerTimeout)
			defer cancel()

			start := time.Now()
			err := call(callCtx)
			a.metrics.Provider(names[i], time.Since(start), err)
			if err != nil {
				errs[i] = eris.Wrapf(err, "analysis: %s", names[i])
			}
		})
	}
	wg.Wait()

	var failed []string
	var joined []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, names[i])
			joined = append(joined, err)
		}
	}
	if len(joined) > 0 {
		return fetched{}, &UpstreamError{Stage: "fetch", Providers: failed, Err: errors.Join(joined...)}
	}

	if out.schools == nil {
		out.schools = []model.School{}
	}
	return out, nil
}
