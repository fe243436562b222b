package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/planpilot/internal/analysis"
	"github.com/sells-group/planpilot/internal/cache"
	"github.com/sells-group/planpilot/internal/model"
)

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*model.AnalysisResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisResult), args.Error(1)
}

type mockWriter struct{ mock.Mock }

func (m *mockWriter) Write(ctx context.Context, result *model.AnalysisResult) (model.PlanningReport, error) {
	args := m.Called(ctx, result)
	return args.Get(0).(model.PlanningReport), args.Error(1)
}

var sampleReport = model.PlanningReport{
	OverallOutlook:          "Prospects are good.",
	KeyRisks:                []string{"Conservation area scrutiny"},
	StrategicRecommendation: "Engage early.",
	RiskMitigation:          []string{"Use matching materials"},
}

func TestGenerate_UsesCachedAnalysis(t *testing.T) {
	store := cache.NewMemory(5 * time.Minute)
	cached := sampleAnalysis()
	store.Put(context.Background(), "SW1A 1AA", cached)

	analyzer := new(mockAnalyzer)
	writer := new(mockWriter)
	writer.On("Write", mock.Anything, cached).Return(sampleReport, nil)

	svc := NewService(store, analyzer, writer, nil)
	resp, err := svc.Generate(context.Background(), "sw1a1aa ")
	require.NoError(t, err)

	assert.True(t, resp.FromCache)
	assert.Equal(t, "SW1A1AA", resp.Postcode)
	assert.Equal(t, sampleReport, resp.Report)
	_, err = uuid.Parse(resp.ID)
	assert.NoError(t, err)
	assert.False(t, resp.GeneratedAt.IsZero())

	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	writer.AssertExpectations(t)
}

func TestGenerate_RunsAnalysisOnMiss(t *testing.T) {
	fresh := sampleAnalysis()
	analyzer := new(mockAnalyzer)
	analyzer.On("Analyze", mock.Anything, analysis.Request{Postcode: "SW1A 1AA"}).Return(fresh, nil)
	writer := new(mockWriter)
	writer.On("Write", mock.Anything, fresh).Return(sampleReport, nil)

	svc := NewService(cache.NewMemory(5*time.Minute), analyzer, writer, nil)
	resp, err := svc.Generate(context.Background(), "SW1A 1AA")
	require.NoError(t, err)

	assert.False(t, resp.FromCache)
	analyzer.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestGenerate_AnalysisErrorPassesThrough(t *testing.T) {
	notFound := &analysis.InputError{Err: analysis.ErrLocationNotFound}
	analyzer := new(mockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, notFound)
	writer := new(mockWriter)

	svc := NewService(nil, analyzer, writer, nil)
	_, err := svc.Generate(context.Background(), "ZZ9 9ZZ")

	require.Error(t, err)
	assert.True(t, analysis.IsLocationNotFound(err))
	writer.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestGenerate_WriterFailureIsUpstream(t *testing.T) {
	store := cache.NewMemory(5 * time.Minute)
	store.Put(context.Background(), "SW1A 1AA", sampleAnalysis())

	writer := new(mockWriter)
	writer.On("Write", mock.Anything, mock.Anything).Return(model.PlanningReport{}, errors.New("report: parse model output"))

	svc := NewService(store, new(mockAnalyzer), writer, nil)
	_, err := svc.Generate(context.Background(), "SW1A 1AA")

	require.Error(t, err)
	assert.True(t, analysis.IsUpstreamError(err))
}

func TestGenerate_EmptyPostcode(t *testing.T) {
	svc := NewService(nil, new(mockAnalyzer), new(mockWriter), nil)
	_, err := svc.Generate(context.Background(), "  ")
	assert.True(t, analysis.IsInputError(err))
}
