package metrics

import (
	"fmt"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exports booking workflow counters to Prometheus.
type BookingMetrics struct {
	reservationsCreated prometheus.Counter
	reservationEntries  prometheus.Histogram
	checkoutSessions    prometheus.Counter
	checkoutLineItems   prometheus.Counter
	checkoutFailures    prometheus.Counter
	confirmations       *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
}

// NewBookingMetrics registers the booking collectors on registerer, or on the default registerer when nil.
func NewBookingMetrics(registerer prometheus.Registerer) *BookingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &BookingMetrics{
		reservationsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookings_reservations_created_total",
			Help: "Total number of reservations created",
		}),
		reservationEntries: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "bookings_reservation_entries",
			Help:    "Number of entries per created reservation",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		checkoutSessions: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookings_checkout_sessions_created_total",
			Help: "Total number of checkout sessions created",
		}),
		checkoutLineItems: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookings_checkout_line_items_total",
			Help: "Total number of line items sent to the payment gateway",
		}),
		checkoutFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bookings_checkout_sessions_failed_total",
			Help: "Total number of checkout sessions the gateway refused",
		}),
		confirmations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bookings_payment_confirmations_total",
			Help: "Payment confirmation events by outcome",
		}, []string{"outcome"}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bookings_reservation_transitions_total",
			Help: "Reservations moved to a new status",
		}, []string{"status"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// ReservationCreated counts a new reservation and its entry count.
func (metrics *BookingMetrics) ReservationCreated(entries int) {
	metrics.reservationsCreated.Inc()
	metrics.reservationEntries.Observe(float64(entries))
}

// CheckoutSessionCreated counts a session and its line items.
func (metrics *BookingMetrics) CheckoutSessionCreated(lineItems int) {
	metrics.checkoutSessions.Inc()
	metrics.checkoutLineItems.Add(float64(lineItems))
}

func (metrics *BookingMetrics) CheckoutSessionFailed() {
	metrics.checkoutFailures.Inc()
}

func (metrics *BookingMetrics) ConfirmationProcessed(outcome string) {
	metrics.confirmations.WithLabelValues(outcome).Inc()
}

// ReservationsTransitioned adds count to the counter for the target status.
func (metrics *BookingMetrics) ReservationsTransitioned(to booking.ReservationStatus, count int) {
	if count <= 0 {
		return
	}
	metrics.statusTransitions.WithLabelValues(to.String()).Add(float64(count))
}
