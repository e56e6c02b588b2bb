// internal/workflow/result_test.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		kind stepKind
		err  error
		want ErrorCode
	}{
		{"nil", kindAction, nil, ErrCodeExecutionFailure},
		{"token missing", kindAction, fmt.Errorf("cookie %q: %w", "auth-token", ErrTokenMissing), ErrCodeTokenMissing},
		{"deadline", kindAction, fmt.Errorf("click: %w", context.DeadlineExceeded), ErrCodeTimeoutError},
		{"deadline on navigate", kindNavigate, fmt.Errorf("navigation timed out: %w", context.DeadlineExceeded), ErrCodeTimeoutError},
		{"canceled", kindAction, context.Canceled, ErrCodeCanceled},
		{"net error on action", kindAction, errors.New("page load error net::ERR_CONNECTION_REFUSED"), ErrCodeNavigationError},
		{"any navigate failure", kindNavigate, errors.New("websocket closed"), ErrCodeNavigationError},
		{"rod element", kindAction, errors.New("cannot find element: no element found"), ErrCodeElementNotFound},
		{"cdp node", kindAction, errors.New("could not find node with given id"), ErrCodeElementNotFound},
		{"select option", kindAction, errors.New("no option with value \"13\""), ErrCodeElementNotFound},
		{"timeout text", kindAction, errors.New("wait-enabled: timeout waiting for element"), ErrCodeTimeoutError},
		{"unknown", kindAction, errors.New("boom"), ErrCodeExecutionFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.kind, tt.err))
		})
	}
}

func TestResult_Err(t *testing.T) {
	ok := success("tok")
	assert.True(t, ok.Succeeded())
	assert.NoError(t, ok.Err())
	assert.Equal(t, "tok", ok.Token)

	cause := errors.New("no element found")
	res := fail(StepOpenSignup, kindAction, cause)
	require.False(t, res.Succeeded())

	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `step "open_signup" failed (ELEMENT_NOT_FOUND): no element found`, err.Error())
}
