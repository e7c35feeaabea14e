package amqp

import (
	"encoding/json"
	"time"

	"milkbill/internal/core"
)

// Bill event types.
const (
	EventBillCreated = "bill.created"
	EventBillDeleted = "bill.deleted"
)

// BillEvent announces a change in the bill store. Deleted events carry only
// the id.
type BillEvent struct {
	Type        string    `json:"type"`
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Mobile      string    `json:"mobile,omitempty"`
	Date        string    `json:"date,omitempty"`
	TotalLiters float64   `json:"total_liters,omitempty"`
	TotalAmount float64   `json:"total_amount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBillCreatedEvent describes a freshly stored bill.
func NewBillCreatedEvent(b core.Bill) *BillEvent {
	return &BillEvent{
		Type:        EventBillCreated,
		ID:          b.ID,
		Name:        b.Name,
		Mobile:      b.Mobile,
		Date:        b.Date.String(),
		TotalLiters: b.TotalLiters,
		TotalAmount: b.TotalAmount,
		Timestamp:   time.Now(),
	}
}

func NewBillDeletedEvent(id string) *BillEvent {
	return &BillEvent{
		Type:      EventBillDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *BillEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BillEventFromJSON decodes an event body.
func BillEventFromJSON(data []byte) (*BillEvent, error) {
	var e BillEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
