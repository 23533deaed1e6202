package venue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestE(t *testing.T) {
	base := errors.New("code -2010")
	err := E(KindInsufficientFunds, "createOrder", base)

	require.Error(t, err)
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "createOrder")
	assert.Contains(t, err.Error(), "insufficient_funds")

	assert.NoError(t, E(KindExchange, "createOrder", nil))
}

func TestClassify_NetworkErrors(t *testing.T) {
	err := Classify("fetchBook", timeoutErr{})
	assert.Equal(t, KindNetwork, KindOf(err))

	err = Classify("fetchBook", fmt.Errorf("request: %w", context.DeadlineExceeded))
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestClassify_UnknownByDefault(t *testing.T) {
	err := Classify("fetchBook", errors.New("boom"))
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestClassify_KeepsExistingTag(t *testing.T) {
	tagged := E(KindRateLimited, "createOrder", errors.New("429"))
	wrapped := fmt.Errorf("leg 2: %w", tagged)

	out := Classify("createOrder", wrapped)
	assert.Equal(t, KindRateLimited, KindOf(out))
	assert.Same(t, wrapped, out)
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, Classify("fetchBook", nil))
}

func TestKindOf_Untagged(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
