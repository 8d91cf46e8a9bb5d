package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTray_KeepsNewestFive(t *testing.T) {
	clock := newFakeClock()
	tray := NewTray(clock)

	for i := 0; i < 7; i++ {
		tray.Push(Notification{Kind: KindMessage, Message: string(rune('a' + i))})
	}

	items := tray.Items()
	require.Len(t, items, DefaultTrayLimit)
	assert.Equal(t, "g", items[0].Message, "newest first")
	assert.Equal(t, "c", items[4].Message)
	assert.Equal(t, DefaultTrayLimit, clock.pendingTimers(), "evicted entries stop their timers")
}

func TestTray_AutoDismiss(t *testing.T) {
	clock := newFakeClock()
	tray := NewTray(clock)

	tray.Push(Notification{Message: "first"})
	clock.Advance(3 * time.Second)
	tray.Push(Notification{Message: "second"})

	clock.Advance(2 * time.Second)
	items := tray.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "second", items[0].Message)

	clock.Advance(3 * time.Second)
	assert.Equal(t, 0, tray.Len())
}

func TestTray_DismissManually(t *testing.T) {
	clock := newFakeClock()
	tray := NewTray(clock)

	n := tray.Push(Notification{Message: "x"})
	assert.True(t, tray.Dismiss(n.ID))
	assert.False(t, tray.Dismiss(n.ID))
	assert.Equal(t, 0, clock.pendingTimers())

	clock.Advance(DefaultTrayTTL)
	assert.Equal(t, 0, tray.Len())
}

func TestTray_OnPushAndTimestamp(t *testing.T) {
	clock := newFakeClock()
	tray := NewTray(clock)

	var seen []Notification
	tray.OnPush = func(n Notification) { seen = append(seen, n) }

	a := tray.Push(Notification{Message: "a"})
	b := tray.Push(Notification{Message: "b"})

	require.Len(t, seen, 2)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, clock.Now(), a.At)
}
