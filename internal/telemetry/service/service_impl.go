package service

import (
	"context"
	"sort"
	"time"

	"github.com/fub-iot/bems/internal/config"
	obsmetrics "github.com/fub-iot/bems/internal/observability/metrics"
	"github.com/fub-iot/bems/internal/telemetry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Building *config.Building
	Datasets domain.DatasetProvider
	Log      *zap.Logger
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	building *config.Building
	datasets domain.DatasetProvider
	log      *zap.Logger
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		building: p.Building,
		datasets: p.Datasets,
		log:      p.Log.Named("telemetry.service"),
		metrics:  p.Metrics,
	}
}

// Factors are the fixed configuration constants for derived metrics.
type Factors struct {
	TariffPerKWh float64
	CO2KgPerKWh  float64
	SavingsRatio float64
}

// Query computes rollups for one closed time range. An empty range result
// is a normal response with HasData=false, not an error.
func (s *Service) Query(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error) {
	if req.End.Before(req.Start) {
		return domain.QueryResponse{}, domain.ErrInvalidRange
	}
	granularity := req.Granularity
	if granularity == "" {
		granularity = domain.GranularityBuilding
	}
	if !granularity.Valid() {
		return domain.QueryResponse{}, domain.ErrInvalidGranularity
	}
	if req.UnitID != "" {
		if _, ok := s.building.UnitByID(req.UnitID); !ok {
			return domain.QueryResponse{}, domain.ErrUnknownUnit
		}
	}

	ds, err := s.datasets.Get(ctx)
	if err != nil {
		return domain.QueryResponse{}, err
	}

	subset, err := Filter(ds.Samples, req.Start, req.End)
	if err != nil {
		return domain.QueryResponse{}, err
	}
	if req.UnitID != "" {
		subset = filterUnit(subset, req.UnitID)
	}
	SortByTime(subset)

	factors := Factors{
		TariffPerKWh: s.building.TariffPerKWh,
		CO2KgPerKWh:  s.building.CO2KgPerKWh,
		SavingsRatio: s.building.SavingsRatio,
	}

	resp := domain.QueryResponse{
		Totals:  AggregateTotals(subset, factors),
		Rows:    GroupBy(subset, granularity, factors),
		Daily:   DailyTotals(subset),
		Series:  PowerSeries(subset),
		HasData: len(subset) > 0,
	}
	if req.UnitID != "" && len(subset) > 0 {
		latest := subset[len(subset)-1]
		resp.Latest = &latest
	}

	s.metrics.RecordQuery(ctx, string(granularity))
	s.log.Debug("query served",
		zap.Time("start", req.Start),
		zap.Time("end", req.End),
		zap.String("granularity", string(granularity)),
		zap.String("unit_id", req.UnitID),
		zap.Int("samples", len(subset)),
	)

	return resp, nil
}

// Filter selects samples with start <= timestamp <= end, both bounds
// inclusive. An empty result is valid.
func Filter(samples []domain.Sample, start, end time.Time) ([]domain.Sample, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidRange
	}
	out := make([]domain.Sample, 0, len(samples)/4)
	for _, s := range samples {
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func filterUnit(samples []domain.Sample, unitID string) []domain.Sample {
	out := samples[:0]
	for _, s := range samples {
		if s.UnitID == unitID {
			out = append(out, s)
		}
	}
	return out
}

// SortByTime sorts samples ascending by timestamp, keeping catalog order
// for equal instants. Grouping relies on this so that "latest sample"
// ties resolve deterministically.
func SortByTime(samples []domain.Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}

// AggregateTotals sums energy over the subset and derives cost, emissions
// and the schedule-savings estimate from the configured factors.
func AggregateTotals(samples []domain.Sample, f Factors) domain.Totals {
	var energy float64
	for _, s := range samples {
		energy += s.EnergyKWh
	}
	cost := energy * f.TariffPerKWh
	return domain.Totals{
		EnergyKWh:        energy,
		Cost:             cost,
		CO2Kg:            energy * f.CO2KgPerKWh,
		EstimatedSavings: cost * f.SavingsRatio,
	}
}

// GroupBy buckets the subset by the requested dimension. last_power is the
// power of the chronologically latest sample per bucket; with the subset
// time-sorted, the last one encountered wins. Rows come back ordered by
// floor then room.
func GroupBy(samples []domain.Sample, granularity domain.Granularity, f Factors) []domain.AggregateRow {
	type bucket struct {
		row    domain.AggregateRow
		lastTS time.Time
	}

	buckets := map[string]*bucket{}
	var order []string
	for _, s := range samples {
		key := groupKey(s, granularity)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{row: domain.AggregateRow{Key: key}}
			if granularity != domain.GranularityBuilding {
				b.row.FloorID = s.FloorID
			}
			if granularity == domain.GranularityRoom {
				b.row.UnitID = s.UnitID
				b.row.UnitName = s.UnitName
			}
			buckets[key] = b
			order = append(order, key)
		}
		b.row.EnergyKWh += s.EnergyKWh
		if !s.Timestamp.Before(b.lastTS) {
			b.lastTS = s.Timestamp
			b.row.LastPowerKW = s.PowerKW
		}
	}

	rows := make([]domain.AggregateRow, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		b.row.Cost = b.row.EnergyKWh * f.TariffPerKWh
		b.row.CO2Kg = b.row.EnergyKWh * f.CO2KgPerKWh
		rows = append(rows, b.row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FloorID != rows[j].FloorID {
			return rows[i].FloorID < rows[j].FloorID
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func groupKey(s domain.Sample, granularity domain.Granularity) string {
	switch granularity {
	case domain.GranularityFloor:
		return s.FloorID
	case domain.GranularityRoom:
		return s.UnitID
	default:
		return "building"
	}
}

// DailyTotals sums energy per calendar date (the timestamp's date
// component, not a rolling 24h window), ascending.
func DailyTotals(samples []domain.Sample) []domain.DailyEnergy {
	totals := map[string]float64{}
	for _, s := range samples {
		totals[s.Timestamp.Format("2006-01-02")] += s.EnergyKWh
	}

	dates := make([]string, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]domain.DailyEnergy, 0, len(dates))
	for _, d := range dates {
		out = append(out, domain.DailyEnergy{Date: d, EnergyKWh: totals[d]})
	}
	return out
}

// PowerSeries sums power across the subset per grid instant, ascending,
// for load-profile charts.
func PowerSeries(samples []domain.Sample) []domain.SeriesPoint {
	sums := map[time.Time]float64{}
	for _, s := range samples {
		sums[s.Timestamp] += s.PowerKW
	}

	instants := make([]time.Time, 0, len(sums))
	for ts := range sums {
		instants = append(instants, ts)
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })

	out := make([]domain.SeriesPoint, 0, len(instants))
	for _, ts := range instants {
		out = append(out, domain.SeriesPoint{Timestamp: ts, PowerKW: sums[ts]})
	}
	return out
}
