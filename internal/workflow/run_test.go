// internal/workflow/run_test.go
package workflow

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vernont/internal/pkg/apperr"
)

func TestRunMetadataRoundTrip(t *testing.T) {
	run := &Run{Saga: "test", CorrelationID: "c-1"}

	run.PutMetadata("order_id", "o-42")
	value, err := run.Metadata("order_id")
	require.NoError(t, err)
	assert.Equal(t, "o-42", value)
}

func TestRunMetadataMissingKey(t *testing.T) {
	run := &Run{Saga: "test", CorrelationID: "c-1"}

	_, err := run.Metadata("nope")
	require.Error(t, err)
	var notFound *apperr.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRunCompensationsAreLIFO(t *testing.T) {
	run := &Run{Saga: "test", CorrelationID: "c-1"}

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		run.PushCompensation(name, "undo "+name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	failed := run.triggerCompensations(context.Background())
	assert.Zero(t, failed)
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestRunCompensationFailureDoesNotStopOthers(t *testing.T) {
	run := &Run{Saga: "test", CorrelationID: "c-1"}

	var order []string
	run.PushCompensation("a", "undo a", func(ctx context.Context) error {
		order = append(order, "a")
		return nil
	})
	run.PushCompensation("b", "undo b", func(ctx context.Context) error {
		order = append(order, "b")
		return errors.New("undo b failed")
	})
	run.PushCompensation("c", "undo c", func(ctx context.Context) error {
		order = append(order, "c")
		return nil
	})

	failed := run.triggerCompensations(context.Background())
	assert.Equal(t, 1, failed)
	// 失败的补偿不会阻断其余补偿
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestRunCompensationsRunOnlyOnce(t *testing.T) {
	run := &Run{Saga: "test", CorrelationID: "c-1"}

	calls := 0
	run.PushCompensation("a", "undo a", func(ctx context.Context) error {
		calls++
		return nil
	})

	run.triggerCompensations(context.Background())
	run.triggerCompensations(context.Background())
	assert.Equal(t, 1, calls)
}
