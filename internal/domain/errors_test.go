package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := NewError(KindAgentExecutionFailed, "valuation", "AAPL", errors.New("boom"))

	assert.True(t, errors.Is(err, ErrAgentExecutionFailed))
	assert.False(t, errors.Is(err, ErrAgentNotFound))

	wrapped := fmt.Errorf("invoke: %w", err)
	assert.True(t, errors.Is(wrapped, ErrAgentExecutionFailed))
	assert.Equal(t, KindAgentExecutionFailed, KindOf(wrapped))
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("missing dependency")
	err := NewError(KindAgentConstructionFailed, "sentiment", "", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "AGENT_CONSTRUCTION_FAILED")
	assert.Contains(t, err.Error(), "agent=sentiment")
	assert.Contains(t, err.Error(), "missing dependency")
}

func TestInvalidRequest(t *testing.T) {
	err := InvalidRequest("ticker %q is too long", "ABCDEFGHIJK")

	assert.Equal(t, KindInvalidRequest, err.Kind)
	assert.Contains(t, err.Error(), `"ABCDEFGHIJK"`)
}

func TestKindOf_NonDomainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}
