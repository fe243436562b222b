package analysis

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/planpilot/internal/model"
)

type mockGeocoder struct{ mock.Mock }

func (m *mockGeocoder) Resolve(ctx context.Context, postcode string) (model.Location, error) {
	args := m.Called(ctx, postcode)
	return args.Get(0).(model.Location), args.Error(1)
}

type mockConstraints struct{ mock.Mock }

func (m *mockConstraints) Lookup(ctx context.Context, lat, lon float64) (model.Constraints, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(model.Constraints), args.Error(1)
}

type mockPlanning struct{ mock.Mock }

func (m *mockPlanning) Lookup(ctx context.Context, lat, lon float64, radiusM int) (model.PlanningMetrics, error) {
	args := m.Called(ctx, lat, lon, radiusM)
	return args.Get(0).(model.PlanningMetrics), args.Error(1)
}

type mockMarket struct{ mock.Mock }

func (m *mockMarket) Lookup(ctx context.Context, lat, lon float64, postcode string) (model.MarketMetrics, error) {
	args := m.Called(ctx, lat, lon, postcode)
	return args.Get(0).(model.MarketMetrics), args.Error(1)
}

type mockSchools struct{ mock.Mock }

func (m *mockSchools) Lookup(ctx context.Context, lat, lon float64) ([]model.School, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.School), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Get(ctx context.Context, postcode string) (*model.AnalysisResult, bool) {
	args := m.Called(ctx, postcode)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.AnalysisResult), args.Bool(1)
}

func (m *mockStore) Put(ctx context.Context, postcode string, result *model.AnalysisResult) {
	m.Called(ctx, postcode, result)
}

type mocks struct {
	geo         *mockGeocoder
	constraints *mockConstraints
	planning    *mockPlanning
	market      *mockMarket
	schools     *mockSchools
}

func newMocks() *mocks {
	return &mocks{
		geo:         new(mockGeocoder),
		constraints: new(mockConstraints),
		planning:    new(mockPlanning),
		market:      new(mockMarket),
		schools:     new(mockSchools),
	}
}

func (m *mocks) providers() Providers {
	return Providers{
		Geocoder:    m.geo,
		Constraints: m.constraints,
		Planning:    m.planning,
		Market:      m.market,
		Schools:     m.schools,
	}
}

func (m *mocks) assertExpectations(t mock.TestingT) {
	m.geo.AssertExpectations(t)
	m.constraints.AssertExpectations(t)
	m.planning.AssertExpectations(t)
	m.market.AssertExpectations(t)
	m.schools.AssertExpectations(t)
}
