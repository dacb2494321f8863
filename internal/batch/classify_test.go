package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	typesbatch "github.com/LordErl/itsells-core/internal/types/batch"
)

func TestDaysUntilExpiration(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expiration time.Time
		want       int
	}{
		{"two full days out", now.AddDate(0, 0, 2), 2},
		{"half a day rounds up", now.Add(12 * time.Hour), 1},
		{"exactly now", now, 0},
		{"an hour past", now.Add(-time.Hour), 0},
		{"a day past", now.AddDate(0, 0, -1), -1},
		{"a week out", now.AddDate(0, 0, 7), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilExpiration(tt.expiration, now))
		})
	}
}

func TestClassifyExpiring(t *testing.T) {
	tests := []struct {
		days         int
		wantStatus   typesbatch.ExpirationStatus
		wantPriority typesbatch.Priority
	}{
		{-1, typesbatch.ExpirationExpired, typesbatch.PriorityCritical},
		{0, typesbatch.ExpirationCritical, typesbatch.PriorityCritical},
		{1, typesbatch.ExpirationCritical, typesbatch.PriorityCritical},
		{2, typesbatch.ExpirationCritical, typesbatch.PriorityHigh},
		{3, typesbatch.ExpirationCritical, typesbatch.PriorityHigh},
		{4, typesbatch.ExpirationWarning, typesbatch.PriorityMedium},
		{10, typesbatch.ExpirationWarning, typesbatch.PriorityMedium},
	}
	for _, tt := range tests {
		status, priority := ClassifyExpiring(tt.days)
		assert.Equal(t, tt.wantStatus, status, "days=%d", tt.days)
		assert.Equal(t, tt.wantPriority, priority, "days=%d", tt.days)
	}
}

func TestClassifyStatistics(t *testing.T) {
	tests := []struct {
		days int
		want typesbatch.ExpirationStatus
	}{
		{-1, typesbatch.ExpirationExpired},
		{0, typesbatch.ExpirationCritical},
		{3, typesbatch.ExpirationCritical},
		{4, typesbatch.ExpirationWarning},
		{7, typesbatch.ExpirationWarning},
		{8, typesbatch.ExpirationOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStatistics(tt.days), "days=%d", tt.days)
	}
}

// The same two-days-out batch is critical on the triage screen but only
// warning-adjacent in the statistics listing. Both views are intentional.
func TestViewsDisagreeInsideThreeDays(t *testing.T) {
	status, priority := ClassifyExpiring(2)
	assert.Equal(t, typesbatch.ExpirationCritical, status)
	assert.Equal(t, typesbatch.PriorityHigh, priority)
	assert.Equal(t, typesbatch.ExpirationCritical, ClassifyStatistics(2))

	status, _ = ClassifyExpiring(5)
	assert.Equal(t, typesbatch.ExpirationWarning, status)
	assert.Equal(t, typesbatch.ExpirationWarning, ClassifyStatistics(5))
}
