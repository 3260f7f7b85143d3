package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypePaid    EventType = "paid"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeIncome       EntityType = "income"
	EntityTypeSpending     EntityType = "spending"
	EntityTypeService      EntityType = "service"
	EntityTypeCategory     EntityType = "category"
	EntityTypeRecurring    EntityType = "recurring_expense"
	EntityTypeSubscription EntityType = "subscription"
)

// Event is the stale-view signal sent to clients after a mutation. Clients
// treat any cached view depending on the entity as stale and refetch.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "income.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "income"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// IncomeCreated creates an income.created event
func IncomeCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeIncome, payload)
}

// IncomeUpdated creates an income.updated event
func IncomeUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeIncome, payload)
}

// IncomeDeleted creates an income.deleted event
func IncomeDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeIncome, payload)
}

// SpendingCreated creates a spending.created event
func SpendingCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeSpending, payload)
}

// SpendingUpdated creates a spending.updated event
func SpendingUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSpending, payload)
}

// SpendingDeleted creates a spending.deleted event
func SpendingDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeSpending, payload)
}

// ServiceChanged creates a service event for the given change type
func ServiceChanged(eventType EventType, payload interface{}) Event {
	return NewEvent(eventType, EntityTypeService, payload)
}

// CategoryChanged creates a category event for the given change type
func CategoryChanged(eventType EventType, payload interface{}) Event {
	return NewEvent(eventType, EntityTypeCategory, payload)
}

// RecurringChanged creates a recurring_expense event for the given change type
func RecurringChanged(eventType EventType, payload interface{}) Event {
	return NewEvent(eventType, EntityTypeRecurring, payload)
}

// RecurringPaid creates a recurring_expense.paid event
func RecurringPaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeRecurring, payload)
}

// SubscriptionChanged creates a subscription event for the given change type
func SubscriptionChanged(eventType EventType, payload interface{}) Event {
	return NewEvent(eventType, EntityTypeSubscription, payload)
}

// SubscriptionPaid creates a subscription.paid event
func SubscriptionPaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeSubscription, payload)
}
