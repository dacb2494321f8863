package batch

import (
	"math"
	"time"

	"github.com/LordErl/itsells-core/internal/types/batch"
)

// DaysUntilExpiration is ceil((expiration - now) / 1 day). Negative once the
// date has passed. A pure function of its inputs.
func DaysUntilExpiration(expiration, now time.Time) int {
	return int(math.Ceil(expiration.Sub(now).Hours() / 24))
}

// ClassifyExpiring is the triage ("expiring-batches") view used on the
// disposal screen: anything within three days is already critical, with
// priority separating the truly urgent lots.
//
//	days < 0  -> expired,  priority critical
//	days <= 1 -> critical, priority critical
//	days <= 3 -> critical, priority high
//	else      -> warning,  priority medium
func ClassifyExpiring(days int) (batch.ExpirationStatus, batch.Priority) {
	switch {
	case days < 0:
		return batch.ExpirationExpired, batch.PriorityCritical
	case days <= 1:
		return batch.ExpirationCritical, batch.PriorityCritical
	case days <= 3:
		return batch.ExpirationCritical, batch.PriorityHigh
	default:
		return batch.ExpirationWarning, batch.PriorityMedium
	}
}

// ClassifyStatistics is the general-listing ("statistics") view with the
// wider cutoffs:
//
//	days < 0  -> expired
//	days <= 3 -> critical
//	days <= 7 -> warning
//	else      -> ok
//
// The two views deliberately disagree on where "critical" starts; which
// cutoff is authoritative is a pending product decision, so both are kept.
func ClassifyStatistics(days int) batch.ExpirationStatus {
	switch {
	case days < 0:
		return batch.ExpirationExpired
	case days <= 3:
		return batch.ExpirationCritical
	case days <= 7:
		return batch.ExpirationWarning
	default:
		return batch.ExpirationOK
	}
}
