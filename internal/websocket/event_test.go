package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":            1,
		"clientName":    "Walk-in",
		"totalReceived": "45.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeIncome, payload)
	after := time.Now()

	assert.Equal(t, "income.created", evt.Type)
	assert.Equal(t, EntityTypeIncome, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"id":     float64(1),
		"name":   "Chair rent",
		"amount": "800.00",
	}

	evt := Event{
		Type:      "recurring_expense.paid",
		Entity:    EntityTypeRecurring,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime.UTC(), decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), decodedPayload["id"])
	assert.Equal(t, "Chair rent", decodedPayload["name"])
	assert.Equal(t, "800.00", decodedPayload["amount"])
}

func TestEvent_ToJSON(t *testing.T) {
	payload := map[string]interface{}{
		"id": float64(42),
	}

	evt := NewEvent(EventTypeUpdated, EntityTypeSpending, payload)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "spending.updated", decoded["type"])
	assert.Equal(t, "spending", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestIncomeEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{
		"id":            float64(1),
		"totalReceived": "45.00",
	}

	t.Run("IncomeCreated", func(t *testing.T) {
		evt := IncomeCreated(payload)
		assert.Equal(t, "income.created", evt.Type)
		assert.Equal(t, EntityTypeIncome, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("IncomeUpdated", func(t *testing.T) {
		evt := IncomeUpdated(payload)
		assert.Equal(t, "income.updated", evt.Type)
		assert.Equal(t, EntityTypeIncome, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("IncomeDeleted", func(t *testing.T) {
		evt := IncomeDeleted(payload)
		assert.Equal(t, "income.deleted", evt.Type)
		assert.Equal(t, EntityTypeIncome, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})
}

func TestSpendingEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{
		"id":     float64(1),
		"amount": "30.00",
	}

	t.Run("SpendingCreated", func(t *testing.T) {
		evt := SpendingCreated(payload)
		assert.Equal(t, "spending.created", evt.Type)
		assert.Equal(t, EntityTypeSpending, evt.Entity)
	})

	t.Run("SpendingDeleted", func(t *testing.T) {
		evt := SpendingDeleted(payload)
		assert.Equal(t, "spending.deleted", evt.Type)
		assert.Equal(t, EntityTypeSpending, evt.Entity)
	})
}

func TestObligationEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{
		"id":   float64(7),
		"name": "Chair rent",
	}

	t.Run("RecurringChanged", func(t *testing.T) {
		evt := RecurringChanged(EventTypeUpdated, payload)
		assert.Equal(t, "recurring_expense.updated", evt.Type)
		assert.Equal(t, EntityTypeRecurring, evt.Entity)
	})

	t.Run("RecurringPaid", func(t *testing.T) {
		evt := RecurringPaid(payload)
		assert.Equal(t, "recurring_expense.paid", evt.Type)
		assert.Equal(t, EntityTypeRecurring, evt.Entity)
	})

	t.Run("SubscriptionPaid", func(t *testing.T) {
		evt := SubscriptionPaid(payload)
		assert.Equal(t, "subscription.paid", evt.Type)
		assert.Equal(t, EntityTypeSubscription, evt.Entity)
	})

	t.Run("CategoryChanged", func(t *testing.T) {
		evt := CategoryChanged(EventTypeDeleted, payload)
		assert.Equal(t, "category.deleted", evt.Type)
		assert.Equal(t, EntityTypeCategory, evt.Entity)
	})

	t.Run("ServiceChanged", func(t *testing.T) {
		evt := ServiceChanged(EventTypeCreated, payload)
		assert.Equal(t, "service.created", evt.Type)
		assert.Equal(t, EntityTypeService, evt.Entity)
	})
}
