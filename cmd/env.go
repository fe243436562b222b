package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/planpilot/internal/analysis"
	"github.com/sells-group/planpilot/internal/cache"
	"github.com/sells-group/planpilot/internal/config"
	"github.com/sells-group/planpilot/internal/db"
	"github.com/sells-group/planpilot/internal/monitoring"
	"github.com/sells-group/planpilot/internal/predict"
	"github.com/sells-group/planpilot/internal/provider"
	"github.com/sells-group/planpilot/internal/report"
	"github.com/sells-group/planpilot/internal/resilience"
	"github.com/sells-group/planpilot/pkg/anthropic"
	"github.com/sells-group/planpilot/pkg/epc"
	"github.com/sells-group/planpilot/pkg/geocode"
	"github.com/sells-group/planpilot/pkg/overpass"
	"github.com/sells-group/planpilot/pkg/pvgis"
)

// appEnv holds everything the serve and analyze commands run on.
type appEnv struct {
	Pool      *pgxpool.Pool
	Redis     *redis.Client // nil with the memory cache
	Metrics   *monitoring.Metrics
	Policy    *resilience.Policy
	Predictor *predict.Predictor
	Cache     cache.Store
	Analyzer  *analysis.Analyzer
	Reports   *report.Service // nil without an Anthropic key
	Solar     pvgis.Client
}

// Close releases the database pool and Redis client.
func (e *appEnv) Close() {
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// DBHealthy reports whether the database answers SELECT 1.
func (e *appEnv) DBHealthy(ctx context.Context) bool {
	if e.Pool == nil {
		return false
	}
	return db.Healthy(ctx, e.Pool)
}

// initEnv validates cfg for mode, connects to the database and wires the
// analysis pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	pred, err := predict.FromFile(c.Model.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load approval model")
	}
	zap.L().Info("approval predictor ready",
		zap.String("mode", pred.Mode()),
		zap.String("path", c.Model.Path),
	)

	pool, err := db.Connect(ctx, c.Store.DatabaseURL, c.Store.MaxConns)
	if err != nil {
		return nil, err
	}

	env := &appEnv{
		Pool:      pool,
		Metrics:   monitoring.NewMetrics(),
		Policy:    newPolicy(c),
		Predictor: pred,
	}
	env.Solar = newSolar(c, env.Policy)

	env.Cache, env.Redis = newCache(c, env.Metrics)
	env.Analyzer = analysis.New(buildProviders(c, pool, env.Policy), pred, env.Cache,
		analysis.WithProviderTimeout(c.Analysis.ProviderTimeout()),
		analysis.WithPlanningRadius(c.Analysis.PlanningRadiusM),
		analysis.WithMetrics(env.Metrics),
	)

	if c.Anthropic.Key != "" {
		writer := report.NewLLMWriter(anthropic.NewClient(c.Anthropic.Key), c.Anthropic.Model, c.Anthropic.MaxTokens)
		env.Reports = report.NewService(env.Cache, env.Analyzer, writer, env.Metrics)
	} else {
		zap.L().Warn("PLANPILOT_ANTHROPIC_KEY not set, report generation disabled")
	}

	return env, nil
}

func newPolicy(c *config.Config) *resilience.Policy {
	return resilience.NewPolicy(
		c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs,
		c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs,
	)
}

// newCache builds the configured result cache. The Redis client is returned
// so the caller can close it.
func newCache(c *config.Config, metrics *monitoring.Metrics) (cache.Store, *redis.Client) {
	if c.Cache.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
		zap.L().Info("result cache: redis", zap.String("addr", c.Cache.RedisAddr))
		return cache.NewRedis(rdb, c.Cache.TTL(), c.Cache.Prefix, metrics), rdb
	}
	return cache.NewMemory(c.Cache.TTL(), cache.WithShards(c.Cache.Shards), cache.WithMemoryMetrics(metrics)), nil
}

// buildProviders wires the geocoder, PostGIS stores and schools search.
func buildProviders(c *config.Config, pool db.Pool, policy *resilience.Policy) analysis.Providers {
	geo := geocode.NewClient(
		geocode.WithBaseURL(c.Geocoder.BaseURL),
		geocode.WithHTTPClient(&http.Client{Timeout: secs(c.Geocoder.TimeoutSecs)}),
		geocode.WithRateLimit(c.Geocoder.RateLimit),
		geocode.WithPolicy(policy),
	)

	var epcClient epc.Client
	if c.EPC.Email != "" && c.EPC.APIKey != "" {
		epcClient = epc.NewClient(c.EPC.Email, c.EPC.APIKey,
			epc.WithBaseURL(c.EPC.BaseURL),
			epc.WithHTTPClient(&http.Client{Timeout: secs(c.EPC.TimeoutSecs)}),
			epc.WithPolicy(policy),
		)
	} else {
		zap.L().Warn("EPC credentials not set, EPC ratings will be N/A")
	}

	schools := overpass.NewClient(
		overpass.WithURL(c.Overpass.URL),
		overpass.WithRadius(c.Overpass.RadiusM),
		overpass.WithHTTPClient(&http.Client{Timeout: secs(c.Overpass.TimeoutSecs)}),
		overpass.WithPolicy(policy),
	)

	return analysis.Providers{
		Geocoder:    provider.NewPostcodesGeocoder(geo),
		Constraints: provider.NewPostGISConstraints(pool),
		Planning:    provider.NewPostGISPlanning(pool, c.Analysis.RecentRadiusM, c.Analysis.LookbackYears),
		Market:      provider.NewPostGISMarket(pool, epcClient, c.Analysis.MarketRadiusM, c.Analysis.MarketMonths),
		Schools:     provider.NewOverpassSchools(schools),
	}
}

// newSolar builds the PVGIS client behind /api/v1/pvgis.
func newSolar(c *config.Config, policy *resilience.Policy) pvgis.Client {
	opts := []pvgis.Option{pvgis.WithBaseURL(c.PVGIS.BaseURL), pvgis.WithPolicy(policy)}
	if c.PVGIS.TimeoutSecs > 0 {
		opts = append(opts, pvgis.WithHTTPClient(&http.Client{Timeout: secs(c.PVGIS.TimeoutSecs)}))
	}
	return pvgis.NewClient(opts...)
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
