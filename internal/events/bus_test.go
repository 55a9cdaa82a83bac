package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFiltersByHousehold(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe("hh-a")
	defer cancel()

	bus.Emit(TypeLotAdded, "/test", "hh-a", map[string]interface{}{"lotId": "lot_1"})
	bus.Emit(TypeLotAdded, "/test", "hh-b", map[string]interface{}{"lotId": "lot_2"})

	evt := <-ch
	assert.Equal(t, "hh-a", evt.HouseholdID)
	assert.Equal(t, TypeLotAdded, evt.Type)
	assert.Len(t, ch, 0, "hh-b event must not reach an hh-a subscriber")
}

func TestBusFiltersByType(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe("", TypeDraftFinalized)
	defer cancel()

	bus.Emit(TypeLotAdded, "/test", "hh-a", nil)
	bus.Emit(TypeDraftFinalized, "/test", "hh-a", map[string]interface{}{"draftId": "draft_1"})

	evt := <-ch
	require.Equal(t, TypeDraftFinalized, evt.Type)
	assert.Len(t, ch, 0)
}

func TestBusCancelDetachesSubscriber(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe("hh-a")
	require.Equal(t, 1, bus.SubscriberCount())

	cancel()
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open, "channel closes on cancel")
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	bus.bufferSize = 1
	ch, cancel := bus.Subscribe("hh-a")
	defer cancel()

	bus.Emit(TypeEventAppended, "/test", "hh-a", map[string]interface{}{"n": 1})
	bus.Emit(TypeEventAppended, "/test", "hh-a", map[string]interface{}{"n": 2})

	assert.Len(t, ch, 1, "second event dropped, engine never blocks")
}
