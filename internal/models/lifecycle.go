package models

import (
	"math"
	"time"
)

// LifecycleStatus is the date-derived refinement of an approved partnership.
type LifecycleStatus string

// Possible lifecycle statuses.
const (
	LifecycleUpcoming  LifecycleStatus = "UPCOMING"
	LifecycleOngoing   LifecycleStatus = "ONGOING"
	LifecycleCompleted LifecycleStatus = "COMPLETED"
)

// PartnershipStatus maps the lifecycle refinement back onto the primary
// status enum so both stay synchronized for active partnerships.
func (l LifecycleStatus) PartnershipStatus() PartnershipStatus {
	switch l {
	case LifecycleUpcoming:
		return PartnershipStatusUpcoming
	case LifecycleOngoing:
		return PartnershipStatusOngoing
	default:
		return PartnershipStatusComplete
	}
}

// ResolveLifecycle derives the lifecycle status from the schedule window.
// Callers supply now explicitly; the function never reads a wall clock.
func ResolveLifecycle(startDate, endDate, now time.Time, isManuallyComplete bool) LifecycleStatus {
	if isManuallyComplete {
		return LifecycleCompleted
	}
	if now.Before(startDate) {
		return LifecycleUpcoming
	}
	if now.After(endDate) {
		return LifecycleCompleted
	}
	return LifecycleOngoing
}

// TimeDimensions buckets a timestamp into calendar reporting dimensions.
type TimeDimensions struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
	Month   int `json:"month"`
}

// DeriveTimeDimensions computes the calendar bucket for a creation timestamp.
// Quarter is 1-4, month 1-12. Derived once at creation and never recomputed.
func DeriveTimeDimensions(createdAt time.Time) TimeDimensions {
	month := int(createdAt.Month())
	return TimeDimensions{
		Year:    createdAt.Year(),
		Quarter: (month-1)/3 + 1,
		Month:   month,
	}
}

// DaysBetween returns the difference between two instants in whole days,
// rounded to the nearest day.
func DaysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
