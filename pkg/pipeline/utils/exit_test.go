package utils

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_SetupElegantExit(t *testing.T) {
	SetupElegantExit()
	require.Equal(t, 0, len(registeredChannels))
	ch1 := make(chan struct{})
	ch2 := make(chan struct{})
	ch3 := ExitChannel()
	RegisterExitChannel(ch1)
	RegisterExitChannel(ch2)
	require.Equal(t, 3, len(registeredChannels))

	select {
	case <-ch1:
		require.Fail(t, "channel should have been open")
	default:
	}

	ctx, cancel := ExitContext(context.Background())
	defer cancel()

	// send signal and see that it is propagated
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	for _, ch := range []chan struct{}{ch1, ch2, ch3} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			require.Fail(t, "channel should have been closed")
		}
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		require.Fail(t, "context should have been canceled")
	}
}

func TestExitContext_ParentCancel(t *testing.T) {
	SetupElegantExit()
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := ExitContext(parent)
	defer cancel()
	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		require.Fail(t, "context should follow its parent")
	}
}
