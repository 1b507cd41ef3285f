package agents

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/markcheno/go-talib"

	"meridian/internal/domain/insight"
	"meridian/internal/domain/quality"
	"meridian/internal/domain/sales"
	"meridian/pkg/logger"
)

// ForecastConfig tunes the forecast agent
type ForecastConfig struct {
	// MinHistoryDays is the shortest usable sales history.
	MinHistoryDays int

	// SmoothingPeriod is the SMA window applied before trend fitting.
	SmoothingPeriod int

	// SeasonalDeviation marks the series seasonal when any weekday factor
	// deviates from 1.0 by more than this.
	SeasonalDeviation float64

	// StockoutDays and OverstockDays bound the healthy days-of-cover range.
	StockoutDays  float64
	OverstockDays float64
}

// DefaultForecastConfig returns the standard forecast thresholds.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		MinHistoryDays:    7,
		SmoothingPeriod:   7,
		SeasonalDeviation: 0.25,
		StockoutDays:      7,
		OverstockDays:     90,
	}
}

// ForecastAgent projects demand from daily sales history: SMA-smoothed
// linear trend with weekly seasonality factors and a residual-based
// confidence interval per point.
type ForecastAgent struct {
	cfg ForecastConfig
	log *logger.Logger
}

// NewForecastAgent creates a forecast agent.
func NewForecastAgent(cfg ForecastConfig) *ForecastAgent {
	if cfg.MinHistoryDays <= 0 {
		cfg.MinHistoryDays = 7
	}
	if cfg.SmoothingPeriod <= 0 {
		cfg.SmoothingPeriod = 7
	}
	if cfg.SeasonalDeviation <= 0 {
		cfg.SeasonalDeviation = 0.25
	}
	if cfg.StockoutDays <= 0 {
		cfg.StockoutDays = 7
	}
	if cfg.OverstockDays <= 0 {
		cfg.OverstockDays = 90
	}
	return &ForecastAgent{
		cfg: cfg,
		log: logger.Get().With("component", "forecast_agent"),
	}
}

// Type implements Agent.
func (a *ForecastAgent) Type() insight.AgentType { return insight.AgentForecast }

// Analyze implements Agent.
func (a *ForecastAgent) Analyze(ctx context.Context, input *Input, report *quality.Report) (*insight.DomainResult, error) {
	dates, units := dailySeries(input.SalesHistory)
	if len(units) < a.cfg.MinHistoryDays {
		return &insight.DomainResult{Forecast: &insight.ForecastResult{
			Confidence: composeFor(0, report, input),
			Reasoning: fmt.Sprintf("insufficient data: %d days of sales history, need at least %d",
				len(units), a.cfg.MinHistoryDays),
		}}, nil
	}

	horizon := input.HorizonDays
	if horizon <= 0 {
		horizon = 14
	}

	smoothed := smooth(units, a.cfg.SmoothingPeriod)
	slope, intercept := linearFit(smoothed)
	factors, seasonal := weekdayFactors(dates, units, a.cfg.SeasonalDeviation)
	residual := residualStddev(smoothed, slope, intercept)

	lastDate := dates[len(dates)-1]
	points := make([]insight.DemandPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		date := lastDate.AddDate(0, 0, i)
		predicted := intercept + slope*float64(len(smoothed)-1+i)
		predicted *= factors[int(date.Weekday())]
		if predicted < 0 {
			predicted = 0
		}
		margin := 1.96 * residual
		points = append(points, insight.DemandPoint{
			Date:           date,
			PredictedUnits: math.Round(predicted*100) / 100,
			LowerBound:     math.Max(0, math.Round((predicted-margin)*100)/100),
			UpperBound:     math.Round((predicted+margin)*100) / 100,
		})
	}

	alerts := a.inventoryAlerts(input, points)

	base := a.baseConfidence(units)
	conf := composeFor(base, report, input)

	note := "no weekly seasonality detected"
	if seasonal {
		note = fmt.Sprintf("weekly seasonality detected (weekday factors deviate more than %.0f%% from mean)",
			a.cfg.SeasonalDeviation*100)
	}

	result := &insight.ForecastResult{
		Points:          points,
		Seasonal:        seasonal,
		SeasonalityNote: note,
		Alerts:          alerts,
		Confidence:      conf,
		Reasoning: fmt.Sprintf(
			"forecast %d days from %d days of history; base confidence %.2f from history volume and variance",
			horizon, len(units), base),
	}

	a.log.Debugf("Forecast: %d points from %d days, seasonal=%v, %d alerts, final confidence %.3f",
		len(points), len(units), seasonal, len(alerts), conf.Final)

	return &insight.DomainResult{Forecast: result}, nil
}

// baseConfidence scores the history itself: 30+ days earn full volume
// credit, and low day-to-day variance earns stability credit.
func (a *ForecastAgent) baseConfidence(units []float64) float64 {
	volume := math.Min(1, float64(len(units))/30)

	m := meanOf(units)
	stability := 1.0
	if m > 0 {
		cv := stddevOf(units) / m
		stability = 1 / (1 + cv)
	}

	return 0.6*volume + 0.4*stability
}

func (a *ForecastAgent) inventoryAlerts(input *Input, points []insight.DemandPoint) []insight.InventoryAlert {
	if input.CurrentInventory <= 0 || len(points) == 0 {
		return nil
	}

	var daily float64
	for _, p := range points {
		daily += p.PredictedUnits
	}
	daily /= float64(len(points))
	if daily <= 0 {
		return nil
	}

	cover := float64(input.CurrentInventory) / daily

	var productID uuid.UUID
	if input.ProductID != nil {
		productID = *input.ProductID
	}

	switch {
	case cover < a.cfg.StockoutDays:
		return []insight.InventoryAlert{{
			ProductID:   productID,
			Kind:        "stockout_risk",
			Message:     fmt.Sprintf("current inventory covers %.1f days of forecast demand (threshold %.0f)", cover, a.cfg.StockoutDays),
			DaysOfCover: math.Round(cover*10) / 10,
		}}
	case cover > a.cfg.OverstockDays:
		return []insight.InventoryAlert{{
			ProductID:   productID,
			Kind:        "overstock",
			Message:     fmt.Sprintf("current inventory covers %.1f days of forecast demand (threshold %.0f)", cover, a.cfg.OverstockDays),
			DaysOfCover: math.Round(cover*10) / 10,
		}}
	}
	return nil
}

// dailySeries collapses raw sales rows into one (date, total units) point
// per day, sorted ascending.
func dailySeries(history []*sales.DailySales) ([]time.Time, []float64) {
	byDay := make(map[time.Time]float64)
	for _, s := range history {
		day := s.Date.Truncate(24 * time.Hour)
		byDay[day] += float64(s.Units)
	}

	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	units := make([]float64, len(dates))
	for i, d := range dates {
		units[i] = byDay[d]
	}
	return dates, units
}

// smooth applies an SMA and backfills the warm-up prefix talib leaves at
// zero with the raw values.
func smooth(units []float64, period int) []float64 {
	if len(units) < period || period < 2 {
		return units
	}
	smoothed := talib.Sma(units, period)
	out := make([]float64, len(units))
	copy(out, units[:period-1])
	copy(out[period-1:], smoothed[period-1:])
	return out
}

// linearFit runs ordinary least squares over the series indexed 0..n-1.
func linearFit(series []float64) (slope, intercept float64) {
	n := float64(len(series))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// weekdayFactors computes a multiplicative demand factor per weekday.
// Weekdays never observed default to 1.0.
func weekdayFactors(dates []time.Time, units []float64, deviation float64) ([7]float64, bool) {
	var sums, counts [7]float64
	for i, d := range dates {
		wd := int(d.Weekday())
		sums[wd] += units[i]
		counts[wd]++
	}

	overall := meanOf(units)

	var factors [7]float64
	seasonal := false
	for wd := range factors {
		factors[wd] = 1
		if counts[wd] == 0 || overall == 0 {
			continue
		}
		factors[wd] = (sums[wd] / counts[wd]) / overall
		if math.Abs(factors[wd]-1) > deviation {
			seasonal = true
		}
	}
	return factors, seasonal
}

func residualStddev(series []float64, slope, intercept float64) float64 {
	var sum float64
	for i, y := range series {
		d := y - (intercept + slope*float64(i))
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(series)))
}
