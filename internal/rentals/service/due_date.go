package service

import "time"

// GraceHours is added to every booked duration before a rental counts as late.
const GraceHours = 1

// ExpectedReturn is the instant after which an open rental is overdue.
func ExpectedReturn(start time.Time, durationHours int) time.Time {
	return start.Add(time.Duration(durationHours+GraceHours) * time.Hour)
}
