package amqp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"milkbill/internal/core"
)

type fakeChannel struct {
	mu         sync.Mutex
	published  []amqp091.Publishing
	keys       []string
	pubErr     error
	deliveries chan amqp091.Delivery
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	f.keys = append(f.keys, exchange+"/"+key)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error { return nil }

type fakeAck struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue []bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error { return nil }

func testBill() core.Bill {
	b := core.NewBill(core.BillValues{
		Name: "Asha", Mobile: "9876543210", Date: core.NewDate(2024, 1, 15),
		Morning: 5, Evening: 3.5, Rate: 40,
	})
	b.ID = "bill-1"
	return b
}

func TestPublishBillEvents(t *testing.T) {
	ch := &fakeChannel{}
	c := &Client{channel: ch, exchangeName: "milkbill", queueName: "bill_events"}

	if err := c.PublishBillCreated(context.Background(), testBill()); err != nil {
		t.Fatalf("publish created: %v", err)
	}
	if err := c.PublishBillDeleted(context.Background(), "bill-1"); err != nil {
		t.Fatalf("publish deleted: %v", err)
	}

	if len(ch.published) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(ch.published))
	}
	if ch.keys[0] != "milkbill/bill_events" {
		t.Errorf("routing = %q", ch.keys[0])
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp091.Persistent || msg.ContentType != "application/json" || msg.Type != EventBillCreated {
		t.Errorf("unexpected publishing: %+v", msg)
	}
	ev, err := BillEventFromJSON(msg.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.ID != "bill-1" || ev.TotalAmount != 340 || ev.Date != "2024-01-15" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ch.published[1].Type != EventBillDeleted {
		t.Errorf("second message type = %q", ch.published[1].Type)
	}
}

func TestPublishFailureIsWrapped(t *testing.T) {
	boom := errors.New("channel closed")
	c := &Client{channel: &fakeChannel{pubErr: boom}, exchangeName: "x", queueName: "q"}
	err := c.PublishBillDeleted(context.Background(), "bill-1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestConsumeBillEvents(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery, 3)}
	c := &Client{channel: ch, queueName: "bill_events"}
	ack := &fakeAck{}

	good, _ := NewBillCreatedEvent(testBill()).ToJSON()
	failing, _ := NewBillDeletedEvent("retry-me").ToJSON()
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: good}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: []byte("not json")}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: failing}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var seen []string
	err := c.ConsumeBillEvents(ctx, func(ev *BillEvent) error {
		seen = append(seen, ev.ID)
		if ev.ID == "retry-me" {
			cancel()
			return errors.New("handler failed")
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	ack.mu.Lock()
	defer ack.mu.Unlock()
	if len(seen) != 2 || seen[0] != "bill-1" {
		t.Fatalf("unexpected handled events: %v", seen)
	}
	if ack.acks != 1 || ack.nacks != 2 {
		t.Fatalf("acks=%d nacks=%d", ack.acks, ack.nacks)
	}
	if ack.requeue[0] || !ack.requeue[1] {
		t.Fatalf("malformed must not requeue, handler failure must: %v", ack.requeue)
	}
}

func TestBillEventFromJSONInvalid(t *testing.T) {
	if _, err := BillEventFromJSON([]byte(`{"id": 12}`)); err == nil {
		t.Error("expected error for non-string id")
	}
}

func TestNewBillDeletedEvent(t *testing.T) {
	ev := NewBillDeletedEvent("bill-9")
	if ev.Type != EventBillDeleted || ev.ID != "bill-9" || ev.Name != "" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if time.Since(ev.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}
}
