package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/types/order"
)

const (
	// business hours bucketed in the peak-hour rollup: [06:00, 23:00)
	openingHour = 6
	closingHour = 23

	// share-of-day thresholds for classifying an hour
	rushShareThreshold  = 8.0
	quietShareThreshold = 3.0

	readAttempts = 3
)

type SalesReport struct {
	Total         float64 `json:"total"`
	OrderCount    int     `json:"order_count"`
	AverageTicket float64 `json:"average_ticket"`
	Trend         float64 `json:"trend"`
}

type TableStat struct {
	TableID int64   `json:"table_id"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
	Share   float64 `json:"share"`
}

type HourStat struct {
	Hour    int     `json:"hour"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
	Share   float64 `json:"share"`
	Class   string  `json:"class"`
}

type PeriodStat struct {
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type PeakHoursReport struct {
	Hourly     []HourStat            `json:"hourly"`
	PeakHour   *HourStat             `json:"peak_hour,omitempty"`
	RushHours  []HourStat            `json:"rush_hours"`
	QuietHours []HourStat            `json:"quiet_hours"`
	Periods    map[string]PeriodStat `json:"periods"`
	BestPeriod string                `json:"best_period"`
}

type TrailingStat struct {
	AvgDaily     float64 `json:"avg_daily"`
	TotalRevenue float64 `json:"total_revenue"`
	Growth       float64 `json:"growth"`
}

type ComparativeReport struct {
	Weekly  TrailingStat `json:"weekly"`
	Monthly TrailingStat `json:"monthly"`
}

type Report struct {
	Date        string            `json:"date"`
	Sales       SalesReport       `json:"sales"`
	Tables      []TableStat       `json:"tables"`
	PeakHours   PeakHoursReport   `json:"peak_hours"`
	Comparative ComparativeReport `json:"comparative"`
}

type Service struct {
	repo ReportRepository
	clk  clock.Clock
}

func NewService(repo ReportRepository, clk clock.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

// DailyReport computes every rollup for the day containing date. All outputs
// are derived on demand from persisted records; nothing is cached or written.
func (s *Service) DailyReport(ctx context.Context, date time.Time) (*Report, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	next := day.AddDate(0, 0, 1)
	prevDay := day.AddDate(0, 0, -1)
	monthAgo := day.AddDate(0, 0, -30)

	var today, yesterday, trailing []order.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.listWithRetry(gctx, day, next)
		return err
	})
	g.Go(func() error {
		var err error
		yesterday, err = s.listWithRetry(gctx, prevDay, day)
		return err
	})
	g.Go(func() error {
		var err error
		trailing, err = s.listWithRetry(gctx, monthAgo, day)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sales := salesRollup(today, yesterday)
	return &Report{
		Date:        day.Format("2006-01-02"),
		Sales:       sales,
		Tables:      tableRollup(today),
		PeakHours:   peakHourRollup(today),
		Comparative: comparativeRollup(sales.Total, trailing, day),
	}, nil
}

// listWithRetry retries transient store failures. Only the read-only
// analytics path gets automatic retries; mutating operations never do.
func (s *Service) listWithRetry(ctx context.Context, start, end time.Time) ([]order.Order, error) {
	var lastErr error
	for attempt := 0; attempt < readAttempts; attempt++ {
		orders, err := s.repo.ListOrdersBetween(ctx, start, end)
		if err == nil {
			return orders, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("analytics query [%s, %s): %w", start.Format("2006-01-02"), end.Format("2006-01-02"), lastErr)
}

// counted reports whether an order participates in the sales rollup.
func counted(o order.Order) bool {
	switch o.Status {
	case order.StatusDelivered, order.StatusConfirmed, order.StatusReady:
		return true
	}
	return false
}

func salesRollup(today, prior []order.Order) SalesReport {
	total, count := sumCounted(today)
	priorTotal, _ := sumCounted(prior)

	avg := 0.0
	if count > 0 {
		avg = total / float64(count)
	}
	return SalesReport{
		Total:         total,
		OrderCount:    count,
		AverageTicket: avg,
		Trend:         pctChange(total, priorTotal),
	}
}

func sumCounted(orders []order.Order) (float64, int) {
	total := 0.0
	count := 0
	for _, o := range orders {
		if counted(o) {
			total += o.Total
			count++
		}
	}
	return total, count
}

func tableRollup(orders []order.Order) []TableStat {
	byTable := map[int64]*TableStat{}
	windowTotal := 0.0
	for _, o := range orders {
		if o.Status != order.StatusDelivered || o.TableID == nil || o.Total <= 0 {
			continue
		}
		st, ok := byTable[*o.TableID]
		if !ok {
			st = &TableStat{TableID: *o.TableID}
			byTable[*o.TableID] = st
		}
		st.Orders++
		st.Revenue += o.Total
		windowTotal += o.Total
	}

	stats := make([]TableStat, 0, len(byTable))
	for _, st := range byTable {
		if windowTotal > 0 {
			st.Share = st.Revenue / windowTotal * 100
		}
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Revenue != stats[j].Revenue {
			return stats[i].Revenue > stats[j].Revenue
		}
		return stats[i].TableID < stats[j].TableID
	})
	return stats
}

func peakHourRollup(orders []order.Order) PeakHoursReport {
	buckets := map[int]*HourStat{}
	dayCount := 0
	for _, o := range orders {
		if !counted(o) {
			continue
		}
		h := o.CreatedAt.UTC().Hour()
		if h < openingHour || h >= closingHour {
			continue
		}
		st, ok := buckets[h]
		if !ok {
			st = &HourStat{Hour: h}
			buckets[h] = st
		}
		st.Orders++
		st.Revenue += o.Total
		dayCount++
	}

	report := PeakHoursReport{
		Periods: map[string]PeriodStat{
			"morning":   {},
			"afternoon": {},
			"evening":   {},
		},
	}

	for h := openingHour; h < closingHour; h++ {
		st, ok := buckets[h]
		if !ok {
			st = &HourStat{Hour: h}
		}
		if dayCount > 0 {
			st.Share = float64(st.Orders) / float64(dayCount) * 100
		}
		switch {
		case st.Orders > 0 && st.Share >= rushShareThreshold:
			st.Class = "rush"
		case st.Share <= quietShareThreshold:
			st.Class = "quiet"
		default:
			st.Class = "normal"
		}

		report.Hourly = append(report.Hourly, *st)
		if st.Class == "rush" {
			report.RushHours = append(report.RushHours, *st)
		}
		if st.Class == "quiet" && st.Orders > 0 {
			report.QuietHours = append(report.QuietHours, *st)
		}

		period := periodOf(h)
		p := report.Periods[period]
		p.Orders += st.Orders
		p.Revenue += st.Revenue
		report.Periods[period] = p

		if st.Orders > 0 && (report.PeakHour == nil || st.Orders > report.PeakHour.Orders) {
			peak := *st
			report.PeakHour = &peak
		}
	}

	best := ""
	bestOrders := -1
	for _, name := range []string{"morning", "afternoon", "evening"} {
		if p := report.Periods[name]; p.Orders > bestOrders {
			best = name
			bestOrders = p.Orders
		}
	}
	if bestOrders > 0 {
		report.BestPeriod = best
	}
	return report
}

func periodOf(hour int) string {
	switch {
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func comparativeRollup(todayTotal float64, trailing []order.Order, day time.Time) ComparativeReport {
	weekAgo := day.AddDate(0, 0, -7)

	weekTotal := 0.0
	monthTotal := 0.0
	for _, o := range trailing {
		if !counted(o) {
			continue
		}
		monthTotal += o.Total
		if !o.CreatedAt.Before(weekAgo) {
			weekTotal += o.Total
		}
	}

	weeklyAvg := weekTotal / 7
	monthlyAvg := monthTotal / 30
	return ComparativeReport{
		Weekly: TrailingStat{
			AvgDaily:     weeklyAvg,
			TotalRevenue: weekTotal,
			Growth:       pctChange(todayTotal, weeklyAvg),
		},
		Monthly: TrailingStat{
			AvgDaily:     monthlyAvg,
			TotalRevenue: monthTotal,
			Growth:       pctChange(todayTotal, monthlyAvg),
		},
	}
}

// pctChange guards the zero baseline: with no prior data the trend is flat,
// never Inf or NaN.
func pctChange(current, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}
