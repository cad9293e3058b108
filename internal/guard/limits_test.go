package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndIncrement_WithinCeiling(t *testing.T) {
	counter := 0
	for i := 1; i <= 5; i++ {
		require.NoError(t, CheckAndIncrement(CounterToolCalls, &counter, 5), "call %d", i)
	}
	assert.Equal(t, 5, counter)
}

func TestCheckAndIncrement_CeilingPlusOneFails(t *testing.T) {
	counter := 0
	for i := 1; i <= 3; i++ {
		require.NoError(t, CheckAndIncrement(CounterModelCalls, &counter, 3))
	}

	err := CheckAndIncrement(CounterModelCalls, &counter, 3)
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, CounterModelCalls, limitErr.Counter)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, 4, limitErr.Current)
	assert.Equal(t, "model_call_limit_exceeded", limitErr.RouteLabel())

	// Counter keeps the overage: it is monotonically increasing.
	assert.Equal(t, 4, counter)
}

func TestLimitExceededError_Message(t *testing.T) {
	err := &LimitExceededError{Counter: CounterToolCalls, Limit: 10, Current: 11}
	assert.Equal(t, "limit of 10 tool_call invocations exceeded (current: 11); run aborted", err.Error())
}
