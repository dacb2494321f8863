package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LordErl/itsells-core/internal/clock"
	"github.com/LordErl/itsells-core/internal/types/order"
)

type stubReportRepo struct {
	mu     sync.Mutex
	orders []order.Order
	fails  int
}

func (r *stubReportRepo) ListOrdersBetween(ctx context.Context, start, end time.Time) ([]order.Order, error) {
	r.mu.Lock()
	if r.fails > 0 {
		r.fails--
		r.mu.Unlock()
		return nil, errors.New("connection reset")
	}
	r.mu.Unlock()

	var out []order.Order
	for _, o := range r.orders {
		if !o.CreatedAt.Before(start) && o.CreatedAt.Before(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

var reportDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func tableRef(id int64) *int64 { return &id }

func deliveredOrder(at time.Time, tableID *int64, total float64) order.Order {
	return order.Order{Status: order.StatusDelivered, TableID: tableID, Total: total, CreatedAt: at}
}

func busyDay() []order.Order {
	return []order.Order{
		deliveredOrder(reportDay.Add(10*time.Hour), tableRef(1), 100),
		deliveredOrder(reportDay.Add(10*time.Hour+30*time.Minute), tableRef(1), 50),
		{Status: order.StatusConfirmed, Total: 30, CreatedAt: reportDay.Add(11 * time.Hour)},
		{Status: order.StatusCancelled, Total: 999, CreatedAt: reportDay.Add(12 * time.Hour)},
		deliveredOrder(reportDay.Add(19*time.Hour), tableRef(2), 150),

		// prior day, feeds the trend baseline and the trailing windows
		deliveredOrder(reportDay.AddDate(0, 0, -1).Add(20*time.Hour), tableRef(1), 300),
	}
}

func setupAnalytics(repo *stubReportRepo) *Service {
	return NewService(repo, clock.Fixed{T: reportDay.Add(23 * time.Hour)})
}

func TestDailyReportSales(t *testing.T) {
	svc := setupAnalytics(&stubReportRepo{orders: busyDay()})

	rep, err := svc.DailyReport(context.Background(), reportDay)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-10", rep.Date)
	assert.Equal(t, 330.0, rep.Sales.Total)
	assert.Equal(t, 4, rep.Sales.OrderCount)
	assert.InDelta(t, 82.5, rep.Sales.AverageTicket, 0.001)
	assert.InDelta(t, 10.0, rep.Sales.Trend, 0.001)
}

func TestDailyReportTables(t *testing.T) {
	svc := setupAnalytics(&stubReportRepo{orders: busyDay()})

	rep, err := svc.DailyReport(context.Background(), reportDay)
	require.NoError(t, err)

	// only delivered orders with a table count; equal revenue ties on id
	require.Len(t, rep.Tables, 2)
	assert.Equal(t, int64(1), rep.Tables[0].TableID)
	assert.Equal(t, 2, rep.Tables[0].Orders)
	assert.Equal(t, 150.0, rep.Tables[0].Revenue)
	assert.InDelta(t, 50.0, rep.Tables[0].Share, 0.001)
	assert.Equal(t, int64(2), rep.Tables[1].TableID)
	assert.InDelta(t, 50.0, rep.Tables[1].Share, 0.001)
}

func TestDailyReportPeakHours(t *testing.T) {
	svc := setupAnalytics(&stubReportRepo{orders: busyDay()})

	rep, err := svc.DailyReport(context.Background(), reportDay)
	require.NoError(t, err)

	ph := rep.PeakHours
	assert.Len(t, ph.Hourly, closingHour-openingHour)

	require.NotNil(t, ph.PeakHour)
	assert.Equal(t, 10, ph.PeakHour.Hour)
	assert.Equal(t, 2, ph.PeakHour.Orders)
	assert.InDelta(t, 50.0, ph.PeakHour.Share, 0.001)

	var rushHours []int
	for _, h := range ph.RushHours {
		rushHours = append(rushHours, h.Hour)
	}
	assert.Contains(t, rushHours, 10)
	assert.Empty(t, ph.QuietHours, "quiet hours list only hours that saw orders")

	assert.Equal(t, 3, ph.Periods["morning"].Orders)
	assert.Equal(t, 1, ph.Periods["evening"].Orders)
	assert.Equal(t, "morning", ph.BestPeriod)
}

func TestDailyReportComparative(t *testing.T) {
	svc := setupAnalytics(&stubReportRepo{orders: busyDay()})

	rep, err := svc.DailyReport(context.Background(), reportDay)
	require.NoError(t, err)

	comp := rep.Comparative
	assert.Equal(t, 300.0, comp.Weekly.TotalRevenue)
	assert.InDelta(t, 300.0/7, comp.Weekly.AvgDaily, 0.001)
	assert.Equal(t, 300.0, comp.Monthly.TotalRevenue)
	assert.InDelta(t, 10.0, comp.Monthly.AvgDaily, 0.001)
	assert.Greater(t, comp.Weekly.Growth, 0.0)
	assert.Greater(t, comp.Monthly.Growth, 0.0)
}

func TestDailyReportEmptyDayHasFlatTrends(t *testing.T) {
	svc := setupAnalytics(&stubReportRepo{})

	rep, err := svc.DailyReport(context.Background(), reportDay)
	require.NoError(t, err)

	assert.Equal(t, 0.0, rep.Sales.Total)
	assert.Equal(t, 0.0, rep.Sales.AverageTicket)
	assert.Equal(t, 0.0, rep.Sales.Trend)
	assert.Equal(t, 0.0, rep.Comparative.Weekly.Growth)
	assert.Empty(t, rep.Tables)
	assert.Nil(t, rep.PeakHours.PeakHour)
	assert.Empty(t, rep.PeakHours.BestPeriod)
}

func TestDailyReportRetriesTransientFailures(t *testing.T) {
	repo := &stubReportRepo{orders: busyDay(), fails: 2}
	svc := setupAnalytics(repo)

	rep, err := svc.DailyReport(context.Background(), reportDay)
	require.NoError(t, err)
	assert.Equal(t, 330.0, rep.Sales.Total)
}

func TestDailyReportGivesUpAfterRetries(t *testing.T) {
	repo := &stubReportRepo{orders: busyDay(), fails: 100}
	svc := setupAnalytics(repo)

	_, err := svc.DailyReport(context.Background(), reportDay)
	assert.Error(t, err)
}
