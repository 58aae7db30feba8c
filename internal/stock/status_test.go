package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]OperationStatus{
		{StatusDraft, StatusWaiting},
		{StatusDraft, StatusCancelled},
		{StatusWaiting, StatusReady},
		{StatusWaiting, StatusCancelled},
		{StatusReady, StatusDone},
		{StatusReady, StatusCancelled},
	}
	for _, edge := range allowed {
		require.True(t, CanTransition(edge[0], edge[1]), "%s -> %s should be allowed", edge[0], edge[1])
	}

	denied := [][2]OperationStatus{
		{StatusDraft, StatusReady},
		{StatusDraft, StatusDone},
		{StatusWaiting, StatusDone},
		{StatusWaiting, StatusDraft},
		{StatusDone, StatusCancelled},
		{StatusDone, StatusDraft},
		{StatusCancelled, StatusDraft},
		{StatusCancelled, StatusDone},
	}
	for _, edge := range denied {
		require.False(t, CanTransition(edge[0], edge[1]), "%s -> %s should be denied", edge[0], edge[1])
	}
}
