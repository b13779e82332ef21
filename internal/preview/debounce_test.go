package preview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerBurstCoalescesToOneTrigger(t *testing.T) {
	d := NewDebouncer(25*time.Millisecond, 200*time.Millisecond)
	go d.Run(t.Context())

	for range 5 {
		d.Request("fswatch", false)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case got := <-d.C():
		require.GreaterOrEqual(t, got.Count, 1)
		require.Equal(t, "fswatch", got.Reason)
		require.False(t, got.Full)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for trigger")
	}

	select {
	case <-d.C():
		t.Fatal("expected a single trigger for the burst")
	case <-time.After(75 * time.Millisecond):
		// ok
	}
}

func TestDebouncerMaxDelayForcesTrigger(t *testing.T) {
	// Quiet window longer than the request spacing: without the max
	// delay the trigger would be postponed for as long as requests
	// keep arriving.
	d := NewDebouncer(200*time.Millisecond, 60*time.Millisecond)
	go d.Run(t.Context())

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		d.Request("fswatch", false)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case got := <-d.C():
		require.GreaterOrEqual(t, got.Count, 2)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for max-delay trigger")
	}
}

func TestDebouncerMergesFullFlagAndKeepsLastReason(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, 200*time.Millisecond)
	go d.Run(t.Context())

	d.Request("fswatch", false)
	d.Request("schedule", true)
	d.Request("fswatch", false)

	select {
	case got := <-d.C():
		require.Equal(t, 3, got.Count)
		require.True(t, got.Full, "full request must survive merging")
		require.Equal(t, "fswatch", got.Reason)
		require.False(t, got.LastAt.Before(got.FirstAt))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for trigger")
	}
}

func TestDebouncerMergesWhileConsumerBusy(t *testing.T) {
	d := NewDebouncer(15*time.Millisecond, 60*time.Millisecond)
	go d.Run(t.Context())

	// First trigger lands in the output buffer with nobody reading,
	// standing in for a consumer that is mid-build.
	d.Request("fswatch", false)
	time.Sleep(40 * time.Millisecond)

	d.Request("manual", true)
	d.Request("fswatch", false)
	time.Sleep(40 * time.Millisecond)

	first := <-d.C()
	require.Equal(t, 1, first.Count)
	require.False(t, first.Full)

	select {
	case second := <-d.C():
		require.Equal(t, 2, second.Count)
		require.True(t, second.Full)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for merged follow-up trigger")
	}

	select {
	case <-d.C():
		t.Fatal("expected exactly one follow-up trigger")
	case <-time.After(75 * time.Millisecond):
		// ok
	}
}

func TestDebouncerRequestNeverBlocks(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, 50*time.Millisecond)

	// No Run loop draining: once the intake buffer fills, further
	// requests must be dropped rather than block the caller.
	for range 200 {
		d.Request("fswatch", false)
	}
}
