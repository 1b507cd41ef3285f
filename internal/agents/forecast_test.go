package agents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/sales"
)

func salesHistory(days int, unitsFor func(day int, date time.Time) int64) []*sales.DailySales {
	productID := uuid.New()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	history := make([]*sales.DailySales, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		history = append(history, &sales.DailySales{
			ProductID: productID,
			Date:      date,
			Units:     unitsFor(i, date),
		})
	}
	return history
}

func TestForecastAgent_InsufficientHistory(t *testing.T) {
	agent := NewForecastAgent(DefaultForecastConfig())

	input := &Input{SalesHistory: salesHistory(5, func(int, time.Time) int64 { return 10 })}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)
	require.NotNil(t, result.Forecast)

	assert.Equal(t, 0.0, result.Forecast.Confidence.Final)
	assert.Contains(t, result.Forecast.Reasoning, "insufficient data")
	assert.Empty(t, result.Forecast.Points)
}

func TestForecastAgent_FlatSeries(t *testing.T) {
	agent := NewForecastAgent(DefaultForecastConfig())

	input := &Input{
		SalesHistory: salesHistory(30, func(int, time.Time) int64 { return 10 }),
		HorizonDays:  7,
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Forecast.Points, 7)
	for _, p := range result.Forecast.Points {
		assert.InDelta(t, 10.0, p.PredictedUnits, 0.5)
		assert.LessOrEqual(t, p.LowerBound, p.PredictedUnits)
		assert.GreaterOrEqual(t, p.UpperBound, p.PredictedUnits)
	}
	assert.False(t, result.Forecast.Seasonal)

	// 30 flat days: full volume credit and full stability credit.
	assert.Equal(t, 1.0, result.Forecast.Confidence.Base)
}

func TestForecastAgent_UpwardTrend(t *testing.T) {
	agent := NewForecastAgent(DefaultForecastConfig())

	input := &Input{
		SalesHistory: salesHistory(30, func(day int, _ time.Time) int64 { return int64(10 + day) }),
		HorizonDays:  5,
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	points := result.Forecast.Points
	require.Len(t, points, 5)
	// The series climbs one unit a day; the projection keeps climbing past
	// the recent smoothed level.
	assert.Greater(t, points[0].PredictedUnits, 30.0)
	assert.Greater(t, points[4].PredictedUnits, points[0].PredictedUnits)
}

func TestForecastAgent_WeekendSeasonality(t *testing.T) {
	agent := NewForecastAgent(DefaultForecastConfig())

	input := &Input{
		SalesHistory: salesHistory(28, func(_ int, date time.Time) int64 {
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				return 30
			}
			return 10
		}),
		HorizonDays: 7,
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	assert.True(t, result.Forecast.Seasonal)
	assert.Contains(t, result.Forecast.SeasonalityNote, "seasonality")

	// Weekend points forecast higher than adjacent weekdays.
	var weekend, weekday float64
	for _, p := range result.Forecast.Points {
		if p.Date.Weekday() == time.Saturday || p.Date.Weekday() == time.Sunday {
			weekend += p.PredictedUnits
		} else {
			weekday += p.PredictedUnits
		}
	}
	assert.Greater(t, weekend/2, weekday/5)
}

func TestForecastAgent_StockoutAlert(t *testing.T) {
	agent := NewForecastAgent(DefaultForecastConfig())

	input := &Input{
		SalesHistory:     salesHistory(30, func(int, time.Time) int64 { return 20 }),
		HorizonDays:      14,
		CurrentInventory: 50, // ~2.5 days of cover at 20 units/day
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Forecast.Alerts, 1)
	alert := result.Forecast.Alerts[0]
	assert.Equal(t, "stockout_risk", alert.Kind)
	assert.Less(t, alert.DaysOfCover, 7.0)
}

func TestForecastAgent_OverstockAlert(t *testing.T) {
	agent := NewForecastAgent(DefaultForecastConfig())

	input := &Input{
		SalesHistory:     salesHistory(30, func(int, time.Time) int64 { return 2 }),
		HorizonDays:      14,
		CurrentInventory: 1000,
	}

	result, err := agent.Analyze(context.Background(), input, cleanReport())
	require.NoError(t, err)

	require.Len(t, result.Forecast.Alerts, 1)
	assert.Equal(t, "overstock", result.Forecast.Alerts[0].Kind)
}

func TestLinearFit(t *testing.T) {
	slope, intercept := linearFit([]float64{1, 2, 3, 4, 5})
	assert.InDelta(t, 1.0, slope, 1e-9)
	assert.InDelta(t, 1.0, intercept, 1e-9)

	slope, intercept = linearFit([]float64{7, 7, 7})
	assert.InDelta(t, 0.0, slope, 1e-9)
	assert.InDelta(t, 7.0, intercept, 1e-9)
}
