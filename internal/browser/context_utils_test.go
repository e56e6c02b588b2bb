// internal/browser/context_utils_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "testKey"
	const value = "testValue"

	t.Run("InheritsValuesFromPrimary", func(t *testing.T) {
		ctx1 := context.WithValue(context.Background(), key, value)

		combinedCtx, cancel := CombineContext(ctx1, context.Background())
		defer cancel()

		assert.Equal(t, value, combinedCtx.Value(key))
		assert.Nil(t, combinedCtx.Err())
	})

	t.Run("CancelledByPrimary", func(t *testing.T) {
		ctx1, cancel1 := context.WithCancel(context.Background())

		combinedCtx, cancelCombined := CombineContext(ctx1, context.Background())
		defer cancelCombined()

		cancel1()
		assert.Eventually(t, func() bool {
			return combinedCtx.Err() != nil
		}, 100*time.Millisecond, 10*time.Millisecond)
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("CancelledBySecondary", func(t *testing.T) {
		ctx2, cancel2 := context.WithCancel(context.Background())

		combinedCtx, cancelCombined := CombineContext(context.Background(), ctx2)
		defer cancelCombined()

		cancel2()
		assert.Eventually(t, func() bool {
			return combinedCtx.Err() != nil
		}, 100*time.Millisecond, 10*time.Millisecond)
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("DeadlineFromSecondaryReportsCanceled", func(t *testing.T) {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel2()

		combinedCtx, cancelCombined := CombineContext(context.Background(), ctx2)
		defer cancelCombined()

		<-combinedCtx.Done()
		assert.ErrorIs(t, ctx2.Err(), context.DeadlineExceeded)
		// The combined context only ever sees cancel(), so callers must
		// consult the operational context to tell a timeout apart.
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("ExplicitCancellation", func(t *testing.T) {
		combinedCtx, cancelCombined := CombineContext(context.Background(), context.Background())
		cancelCombined()
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	type ctxKey string
	const key ctxKey = "testKey"

	t.Run("InheritsValues", func(t *testing.T) {
		parentCtx := context.WithValue(context.Background(), key, "v")
		assert.Equal(t, "v", Detach(parentCtx).Value(key))
	})

	t.Run("IgnoresParentCancellation", func(t *testing.T) {
		parentCtx, cancelParent := context.WithCancel(context.Background())
		detachedCtx := Detach(parentCtx)

		cancelParent()

		assert.ErrorIs(t, parentCtx.Err(), context.Canceled)
		assert.Nil(t, detachedCtx.Err())
		assert.Nil(t, detachedCtx.Done())
	})

	t.Run("IgnoresParentDeadline", func(t *testing.T) {
		parentCtx, cancelParent := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancelParent()
		<-parentCtx.Done()

		deadline, ok := Detach(parentCtx).Deadline()
		require.False(t, ok)
		assert.True(t, deadline.IsZero())
	})
}
