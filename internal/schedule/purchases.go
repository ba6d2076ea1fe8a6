package schedule

import (
	"time"

	"asset-performance-lab/internal/domain"
)

// PurchaseDates generates the DCA purchase schedule for [start, end] at the
// given cadence. All dates are UTC midnight.
//
//	daily:   every calendar day in range
//	weekly:  first Monday on or after start, then every 7 days
//	monthly: the first calendar day of each month within range
//
// A weekly schedule therefore opens up to six days after the window does;
// that mirrors how a real standing order anchored to Mondays behaves.
func PurchaseDates(start, end time.Time, freq domain.Frequency) []time.Time {
	var dates []time.Time

	switch freq {
	case domain.FreqDaily:
		for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
			dates = append(dates, cur)
		}

	case domain.FreqWeekly:
		cur := start
		for cur.Weekday() != time.Monday {
			cur = cur.AddDate(0, 0, 1)
		}
		for ; !cur.After(end); cur = cur.AddDate(0, 0, 7) {
			dates = append(dates, cur)
		}

	case domain.FreqMonthly:
		for cur := monthStart(start); !cur.After(end); cur = monthStart(cur.AddDate(0, 1, 0)) {
			if !cur.Before(start) {
				dates = append(dates, cur)
			}
		}
	}

	return dates
}
