// Package billing ties validation, the billing arithmetic and the store
// together, and keeps the view state of the bill list.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"milkbill/internal/amqp"
	"milkbill/internal/core"
	"milkbill/internal/log"
	"milkbill/internal/metrics"
	"milkbill/internal/store"
)

// Publisher announces store changes. Implemented by *amqp.Client.
type Publisher interface {
	PublishBillCreated(ctx context.Context, b core.Bill) error
	PublishBillDeleted(ctx context.Context, id string) error
}

// Service orchestrates bill operations across the store and the event bus.
type Service struct {
	store     store.Store
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewService builds a service. publisher and m may be nil.
func NewService(s store.Store, publisher Publisher, m *metrics.Metrics) *Service {
	return &Service{
		store:     s,
		publisher: publisher,
		metrics:   m,
	}
}

// List returns every bill in store order.
func (s *Service) List(ctx context.Context) ([]core.Bill, error) {
	bills, err := s.store.List(ctx)
	s.observeStore("list", err)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// Search filters by name or mobile. A blank query lists everything.
func (s *Service) Search(ctx context.Context, query string) ([]core.Bill, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	bills, err := s.store.Search(ctx, query)
	s.observeStore("search", err)
	if err != nil {
		return nil, fmt.Errorf("search bills %q: %w", query, err)
	}
	return bills, nil
}

// Create validates the input, derives the totals and stores the bill.
// Validation failures return core.FieldErrors or core.ErrInvalidNumbers
// without touching the store.
func (s *Service) Create(ctx context.Context, in core.BillInput) (core.Bill, error) {
	values, err := core.ValidateBill(in)
	if err != nil {
		s.observeSubmit(metrics.OutcomeInvalid)
		return core.Bill{}, err
	}

	bill := core.NewBill(values)
	created, err := s.store.Create(ctx, bill)
	s.observeStore("create", err)
	if err != nil {
		s.observeSubmit(metrics.OutcomeError)
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	s.observeSubmit(metrics.OutcomeSuccess)

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogBillCreated(ctx, created.ID, bill.Name, bill.Mobile, bill.TotalLiters, bill.TotalAmount)

	// Some stores answer with an empty body; the event still needs the record.
	event := created
	if event.Name == "" {
		id := created.ID
		event = bill
		event.ID = id
	}
	s.publish(ctx, amqp.EventBillCreated, event.ID, func() error {
		return s.publisher.PublishBillCreated(ctx, event)
	})

	return created, nil
}

// Delete removes a bill. There is no existence check.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("delete bill: empty id")
	}
	err := s.store.Delete(ctx, id)
	s.observeStore("delete", err)
	if err != nil {
		return fmt.Errorf("delete bill %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Bill deleted", "bill_id", id)

	s.publish(ctx, amqp.EventBillDeleted, id, func() error {
		return s.publisher.PublishBillDeleted(ctx, id)
	})
	return nil
}

// Ping checks that the store answers a listing.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.store.List(ctx)
	return err
}

// publish never fails the caller: the store already holds the change.
func (s *Service) publish(ctx context.Context, eventType, id string, send func() error) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping", "type", eventType)
		return
	}
	outcome := metrics.OutcomeSuccess
	if err := send(); err != nil {
		outcome = metrics.OutcomeError
		slog.ErrorContext(ctx, "Failed to publish bill event",
			"type", eventType,
			"bill_id", id,
			"error", err)
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, outcome).Inc()
	}
}

func (s *Service) observeStore(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveStore(op, err)
	}
}

func (s *Service) observeSubmit(outcome string) {
	if s.metrics != nil {
		s.metrics.BillsSubmitted.WithLabelValues(outcome).Inc()
	}
}

// Close releases the publisher when it holds a connection.
func (s *Service) Close() error {
	var errs []error

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close bill service: %w", errors.Join(errs...))
	}
	return nil
}
