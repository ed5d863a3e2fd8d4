package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cause := errors.New("cause")

	testCases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: ErrURLRequired, want: KindValidation},
		{name: "navigation timeout", err: &NavigationTimeoutError{URL: "https://example.com", Timeout: 30 * time.Second, Err: context.DeadlineExceeded}, want: KindNavigationTimeout},
		{name: "wrapped external service", err: fmt.Errorf("infer: %w", &ExternalServiceError{Service: "selector inference", Err: cause}), want: KindExternalService},
		{name: "extraction", err: &ExtractionError{Stage: "snapshot", Err: cause}, want: KindExtraction},
		{name: "canceled extraction", err: &ExtractionError{Stage: "snapshot", Err: context.Canceled}, want: KindCanceled},
		{name: "plain error", err: cause, want: KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Kind(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "URL parameter is required", ErrURLRequired.Error())

	nav := &NavigationTimeoutError{URL: "https://shop.example", Timeout: 30 * time.Second, Err: context.DeadlineExceeded}
	assert.Equal(t, "navigation timeout of 30000 ms exceeded loading https://shop.example", nav.Error())
	assert.ErrorIs(t, nav, context.DeadlineExceeded)

	ext := &ExternalServiceError{Service: "selector inference", Err: errors.New("status 503")}
	assert.Equal(t, "selector inference: status 503", ext.Error())
}
