package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ticketbottle"
	component = "reservation"
)

var (
	joinCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "joins_total",
			Help:      "Count of waiting list joins by outcome (offered, waiting, rejected).",
		},
		[]string{"outcome"},
	)
	purchaseCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "purchases_total",
			Help:      "Count of purchase attempts by outcome.",
		},
		[]string{"outcome"},
	)
	ticketsSoldCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "tickets_sold_total",
			Help:      "Count of tickets created by purchases.",
		},
		[]string{},
	)
	promotionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "promotions_total",
			Help:      "Count of waiting entries promoted to offers.",
		},
		[]string{},
	)
	expirationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "offer_expirations_total",
			Help:      "Count of offers moved to expired, by trigger (job, sweep).",
		},
		[]string{"trigger"},
	)
	rateLimitedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by the rate limiter, by action.",
		},
		[]string{"action"},
	)
	txConflictCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: component,
			Name:      "tx_conflicts_total",
			Help:      "Count of optimistic transaction retries caused by concurrent writers.",
		},
		[]string{},
	)
)

var registerMetrics sync.Once

// Register all metrics with the default registry.
func Register() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(joinCounter)
		prometheus.MustRegister(purchaseCounter)
		prometheus.MustRegister(ticketsSoldCounter)
		prometheus.MustRegister(promotionCounter)
		prometheus.MustRegister(expirationCounter)
		prometheus.MustRegister(rateLimitedCounter)
		prometheus.MustRegister(txConflictCounter)
	})
}

func RecordJoin(outcome string) {
	joinCounter.WithLabelValues(outcome).Inc()
}

func RecordPurchase(outcome string) {
	purchaseCounter.WithLabelValues(outcome).Inc()
}

func RecordTicketsSold(n int) {
	ticketsSoldCounter.WithLabelValues().Add(float64(n))
}

func RecordPromotions(n int) {
	promotionCounter.WithLabelValues().Add(float64(n))
}

func RecordExpiration(trigger string) {
	expirationCounter.WithLabelValues(trigger).Inc()
}

func RecordRateLimited(action string) {
	rateLimitedCounter.WithLabelValues(action).Inc()
}

// RecordTxConflict records one lost optimistic transaction attempt.
func RecordTxConflict() {
	txConflictCounter.WithLabelValues().Inc()
}
