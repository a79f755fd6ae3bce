package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rr"

// Checkout results recorded by Marketplace.ObserveCheckout.
const (
	CheckoutPlaced            = "placed"
	CheckoutEmptyCart         = "empty_cart"
	CheckoutInsufficientStock = "insufficient_stock"
	CheckoutFailed            = "failed"
)

// Marketplace records business counters for the order and messaging flows.
// A nil *Marketplace is valid and records nothing.
type Marketplace struct {
	checkouts        *prometheus.CounterVec
	ordersPlaced     prometheus.Counter
	transitions      *prometheus.CounterVec
	blockedMessages  prometheus.Counter
	sellerDecisions  *prometheus.CounterVec
	reviewsSubmitted prometheus.Counter
}

func NewMarketplace(reg prometheus.Registerer) *Marketplace {
	if reg == nil {
		return nil
	}
	m := &Marketplace{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders created by successful checkouts.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions.",
		}, []string{"from", "to"}),
		blockedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_blocked_total",
			Help:      "Chat messages rejected by the contact filter.",
		}),
		sellerDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seller_application_decisions_total",
			Help:      "Seller application decisions by outcome.",
		}, []string{"decision"}),
		reviewsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_submitted_total",
			Help:      "Reviews accepted.",
		}),
	}
	reg.MustRegister(m.checkouts, m.ordersPlaced, m.transitions, m.blockedMessages, m.sellerDecisions, m.reviewsSubmitted)
	return m
}

func (m *Marketplace) ObserveCheckout(result string, orders int) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
	if orders > 0 {
		m.ordersPlaced.Add(float64(orders))
	}
}

func (m *Marketplace) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *Marketplace) IncBlockedMessage() {
	if m == nil {
		return
	}
	m.blockedMessages.Inc()
}

func (m *Marketplace) ObserveSellerDecision(decision string) {
	if m == nil {
		return
	}
	m.sellerDecisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

func (m *Marketplace) IncReview() {
	if m == nil {
		return
	}
	m.reviewsSubmitted.Inc()
}
