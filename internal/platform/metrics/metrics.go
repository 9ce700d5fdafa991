package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"flightsurety/pkg/domain"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics holds all Prometheus metrics for the ledger service.
type Metrics struct {
	Admissions             *prometheus.CounterVec
	Votes                  prometheus.Counter
	Fundings               *prometheus.CounterVec
	FlightsRegistered      prometheus.Counter
	PoliciesSold           prometheus.Counter
	OraclesRegistered      prometheus.Counter
	ConfirmationsRequested prometheus.Counter
	Responses              *prometheus.CounterVec
	StatusesConfirmed      *prometheus.CounterVec
	Settlements            *prometheus.CounterVec
	CreditedGwei           prometheus.Counter
	Withdrawals            *prometheus.CounterVec
	WithdrawnGwei          prometheus.Counter
	Rejections             *prometheus.CounterVec
	OperationDuration      *prometheus.HistogramVec
	Notifications          *prometheus.CounterVec
	HTTPDuration           *prometheus.HistogramVec
	RateLimited            prometheus.Counter
}

// New registers all metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers all metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Admissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_admissions_total",
			Help: "Airlines admitted, by phase (founding, quorum, genesis)",
		}, []string{"phase"}),
		Votes: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_admission_votes_total",
			Help: "Admission votes recorded",
		}),
		Fundings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_fundings_total",
			Help: "Stake deposits, by whether they were the member's first",
		}, []string{"first"}),
		FlightsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_flights_registered_total",
			Help: "Flights registered",
		}),
		PoliciesSold: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_policies_sold_total",
			Help: "Insurance policies bought",
		}),
		OraclesRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_oracles_registered_total",
			Help: "Reporters registered",
		}),
		ConfirmationsRequested: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_confirmations_requested_total",
			Help: "Flight status confirmation requests opened",
		}),
		Responses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_oracle_responses_total",
			Help: "Reporter responses accepted, by status",
		}, []string{"status"}),
		StatusesConfirmed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_statuses_confirmed_total",
			Help: "Statuses that reached the response quorum, by status",
		}, []string{"status"}),
		Settlements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_settlements_total",
			Help: "Settlement attempts, by whether they were applied",
		}, []string{"applied"}),
		CreditedGwei: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_credited_gwei_total",
			Help: "Gwei credited to passenger balances",
		}),
		Withdrawals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_withdrawals_total",
			Help: "Withdrawals, by outcome (paid, empty, failed)",
		}, []string{"outcome"}),
		WithdrawnGwei: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_withdrawn_gwei_total",
			Help: "Gwei transferred out to passengers",
		}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_rejections_total",
			Help: "Operations rejected by a precondition, by operation and code",
		}, []string{"operation", "code"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flightsurety_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_notifications_total",
			Help: "Notification deliveries, by sink and outcome",
		}, []string{"sink", "outcome"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flightsurety_http_request_duration_seconds",
			Help:    "HTTP request latency, by route pattern and status class",
			Buckets: durationBuckets,
		}, []string{"route", "status"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "flightsurety_rate_limited_total",
			Help: "Requests refused by the rate limiter",
		}),
	}
}

func (m *Metrics) IncrementAdmission(phase string) {
	m.Admissions.WithLabelValues(phase).Inc()
}

func (m *Metrics) IncrementVote() {
	m.Votes.Inc()
}

func (m *Metrics) IncrementFunding(first bool) {
	m.Fundings.WithLabelValues(boolLabel(first)).Inc()
}

func (m *Metrics) IncrementFlightRegistered() {
	m.FlightsRegistered.Inc()
}

func (m *Metrics) IncrementPolicySold() {
	m.PoliciesSold.Inc()
}

func (m *Metrics) IncrementOracleRegistered() {
	m.OraclesRegistered.Inc()
}

func (m *Metrics) IncrementConfirmationRequested() {
	m.ConfirmationsRequested.Inc()
}

func (m *Metrics) IncrementResponse(status string) {
	m.Responses.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementStatusConfirmed(status string) {
	m.StatusesConfirmed.WithLabelValues(status).Inc()
}

// RecordSettlement counts a settlement attempt and, when applied, the total
// credited across its policies.
func (m *Metrics) RecordSettlement(applied bool, credited domain.Amount) {
	m.Settlements.WithLabelValues(boolLabel(applied)).Inc()
	if applied {
		m.CreditedGwei.Add(float64(credited))
	}
}

func (m *Metrics) RecordWithdrawal(outcome string, amount domain.Amount) {
	m.Withdrawals.WithLabelValues(outcome).Inc()
	if amount > 0 {
		m.WithdrawnGwei.Add(float64(amount))
	}
}

func (m *Metrics) IncrementRejection(operation, code string) {
	m.Rejections.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records the duration of a ledger operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementNotification(sink, outcome string) {
	m.Notifications.WithLabelValues(sink, outcome).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (m *Metrics) ObserveHTTP(route, status string, start time.Time) {
	m.HTTPDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementRateLimited() {
	m.RateLimited.Inc()
}
