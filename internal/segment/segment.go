// Package segment classifies customers by visit recency and lifetime spend.
package segment

import (
	"time"

	"fyra/backend/internal/domain"
)

const (
	churnedAfter  = 90 * 24 * time.Hour
	slippingAfter = 45 * 24 * time.Hour
	vipSpend      = 3_000_000
	newMaxVisits  = 2
)

// Classify assigns the highest-priority matching segment. Recency checks
// are skipped for customers who have never visited.
func Classify(c domain.Customer, now time.Time) domain.CustomerSegment {
	if !c.LastVisit.IsZero() {
		idle := now.Sub(c.LastVisit)
		if idle > churnedAfter {
			return domain.SegmentChurned
		}
		if idle > slippingAfter {
			return domain.SegmentSlipping
		}
	}
	if c.TotalSpent > vipSpend {
		return domain.SegmentVIP
	}
	if c.TotalVisits <= newMaxVisits {
		return domain.SegmentNew
	}
	return domain.SegmentLoyal
}
