package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_ForwardPath(t *testing.T) {
	path := []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusDelivering, StatusCompleted}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCanTransition_NoSkippingOrBackwards(t *testing.T) {
	cases := []struct{ from, to Status }{
		{StatusPending, StatusPreparing},
		{StatusPending, StatusDelivering},
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusPending},
		{StatusPreparing, StatusConfirmed},
		{StatusCompleted, StatusConfirmed},
		{StatusDelivering, StatusPending},
	}
	for _, c := range cases {
		assert.False(t, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestCanTransition_CancelFromNonTerminalOnly(t *testing.T) {
	for _, from := range Cancellable() {
		assert.True(t, CanTransition(from, StatusCancelled), "%s -> cancelled", from)
	}
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusCancelled))
}

func TestCanTransition_TerminalStatesAreDeadEnds(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusDelivering, StatusCompleted, StatusCancelled}
	for _, to := range all {
		assert.False(t, CanTransition(StatusCompleted, to), "completed -> %s", to)
		assert.False(t, CanTransition(StatusCancelled, to), "cancelled -> %s", to)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(StatusPending))
	assert.True(t, IsValid(StatusCancelled))
	assert.False(t, IsValid(Status("shipped")))
	assert.False(t, IsValid(Status("")))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusDelivering))
}
