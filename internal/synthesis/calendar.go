package synthesis

import "time"

// NextBusinessDays returns the next n business days strictly after from,
// skipping Saturdays and Sundays.
func NextBusinessDays(from time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := from
	for len(days) < n {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}
