package events

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionDeleted EventType = "transaction.deleted"
	CurrencyChanged    EventType = "currency.changed"
)

// LedgerEvent is a lightweight notification that something changed in a
// user's ledger. Consumers fetch the affected rows from the database, the
// event carries only enough to locate them.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Year          int       `json:"year,omitempty"`
	Month         int       `json:"month,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent builds a created/deleted event for one transaction,
// tagged with the month it affects.
func NewTransactionEvent(eventType EventType, userID, transactionID int64, year, month int) *LedgerEvent {
	return &LedgerEvent{
		Type:          eventType,
		UserID:        userID,
		TransactionID: transactionID,
		Year:          year,
		Month:         month,
		Timestamp:     time.Now(),
	}
}

// NewCurrencyChangedEvent signals that a user switched display currency and
// their cached summaries need renormalizing.
func NewCurrencyChangedEvent(userID int64, currency string) *LedgerEvent {
	return &LedgerEvent{
		Type:      CurrencyChanged,
		UserID:    userID,
		Currency:  currency,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
