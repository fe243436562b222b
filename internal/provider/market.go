package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/planpilot/internal/db"
	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/pkg/epc"
)

// The trend compares the newer half of the window against the older half.
const priceMetricsQuery = `
SELECT
	(AVG(price) / 100.0)::float8 AS avg_price_per_m2,
	((AVG(price) FILTER (WHERE sale_date >= NOW() - make_interval(months => $3)) -
	  AVG(price) FILTER (WHERE sale_date < NOW() - make_interval(months => $3))) /
	 NULLIF(AVG(price) FILTER (WHERE sale_date < NOW() - make_interval(months => $3)), 0))::float8 AS price_trend
FROM price_paid, (SELECT ST_GeomFromEWKB($1) AS g) AS pt
WHERE ST_DWithin(price_paid.geom::geography, pt.g::geography, $2)
  AND sale_date >= NOW() - make_interval(months => $4)`

const comparableSalesQuery = `
SELECT
	COALESCE(postcode, 'Unknown'),
	price::float8,
	TO_CHAR(sale_date, 'YYYY-MM-DD')
FROM price_paid, (SELECT ST_GeomFromEWKB($1) AS g) AS pt
WHERE ST_DWithin(price_paid.geom::geography, pt.g::geography, $2)
  AND sale_date IS NOT NULL
ORDER BY sale_date DESC
LIMIT 5`

// PostGISMarket reads price-paid data from PostGIS and the EPC rating from
// the EPC register.
type PostGISMarket struct {
	pool    db.Pool
	epc     epc.Client
	radiusM int
	months  int
}

// NewPostGISMarket creates a market provider over sales within radiusM in
// the last months.
func NewPostGISMarket(pool db.Pool, epcClient epc.Client, radiusM, months int) *PostGISMarket {
	return &PostGISMarket{pool: pool, epc: epcClient, radiusM: radiusM, months: months}
}

// Lookup implements MarketProvider. An EPC failure degrades the rating to
// "N/A" rather than failing the lookup.
func (p *PostGISMarket) Lookup(ctx context.Context, lat, lon float64, postcode string) (model.MarketMetrics, error) {
	pt, err := pointEWKB(lat, lon)
	if err != nil {
		return model.MarketMetrics{}, err
	}

	var (
		metrics model.MarketMetrics
		comps   []model.ComparableSale
		rating  = model.EPCNotAvailable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var price, trend *float64
		if err := p.pool.QueryRow(gctx, priceMetricsQuery, pt, p.radiusM, p.months/2, p.months).Scan(&price, &trend); err != nil {
			return eris.Wrap(err, "provider: query price metrics")
		}
		metrics.AvgPricePerM2 = model.Round(deref(price), 2)
		metrics.PriceTrend24m = model.Round(deref(trend), 4)
		return nil
	})
	g.Go(func() error {
		var err error
		comps, err = p.comparableSales(gctx, pt)
		return err
	})
	g.Go(func() error {
		rating = p.epcRating(gctx, postcode)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.MarketMetrics{}, err
	}

	metrics.ComparableSales = comps
	metrics.AvgEPCRating = rating
	return metrics, nil
}

func (p *PostGISMarket) epcRating(ctx context.Context, postcode string) string {
	if p.epc == nil {
		return model.EPCNotAvailable
	}
	rating, err := p.epc.AverageRating(ctx, postcode)
	if err != nil {
		zap.L().Warn("epc lookup failed, rating unavailable",
			zap.String("postcode", postcode),
			zap.Error(err),
		)
		return model.EPCNotAvailable
	}
	return rating
}

func (p *PostGISMarket) comparableSales(ctx context.Context, pt []byte) ([]model.ComparableSale, error) {
	rows, err := p.pool.Query(ctx, comparableSalesQuery, pt, p.radiusM)
	if err != nil {
		return nil, eris.Wrap(err, "provider: query comparable sales")
	}
	defer rows.Close()

	sales := []model.ComparableSale{}
	for rows.Next() {
		var s model.ComparableSale
		if err := rows.Scan(&s.Postcode, &s.Price, &s.SaleDate); err != nil {
			return nil, eris.Wrap(err, "provider: scan comparable sale")
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "provider: iterate comparable sales")
	}
	return sales, nil
}
