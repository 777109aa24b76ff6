package metrics

import (
	apperrors "bikerent/pkg/errors"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	RentalsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_created_total",
			Help: "Rental requests by outcome code.",
		},
		[]string{"result"},
	)

	RentalsReturned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_returned_total",
			Help: "Return requests by outcome code.",
		},
		[]string{"result"},
	)

	OverdueScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_overdue_scans_total",
			Help: "Overdue scan cycles by result.",
		},
		[]string{"result"},
	)

	OverdueRentals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentals_overdue",
			Help: "Overdue rentals found by the last scan.",
		},
	)

	NotificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_overdue_notifications_total",
			Help: "Overdue notification batches by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RentalsCreated,
		RentalsReturned,
		OverdueScans,
		OverdueRentals,
		NotificationsDispatched,
	)
}

// Outcome labels an operation result. Application errors are labelled with
// their lower-cased code.
func Outcome(err error) string {
	if err == nil {
		return ResultSuccess
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return ResultFailure
}
