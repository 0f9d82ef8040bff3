package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/testutil"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
		return ""
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"single line", `{"a":1}`, "event: stats\ndata: {\"a\":1}\n\n"},
		{"multi line", "one\ntwo", "event: stats\ndata: one\ndata: two\n\n"},
		{"crlf", "one\r\ntwo\r\n", "event: stats\ndata: one\ndata: two\n\n"},
		{"empty", "", "event: stats\ndata: \n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(FormatMessage("stats", tt.data)))
		})
	}
}

func TestHubBroadcastsToEveryClient(t *testing.T) {
	hub := NewHub("t-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	a, b := NewClient("a"), NewClient("b")
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastEvent("stats", "x")

	assert.Equal(t, "event: stats\ndata: x\n\n", receive(t, a))
	assert.Equal(t, "event: stats\ndata: x\n\n", receive(t, b))
	assert.Equal(t, 2, hub.ClientCount())
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub("t-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	c := NewClient("a")
	hub.Register(c)
	hub.Unregister(c)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub("t-1", testutil.NopLogger())
	go hub.Run()

	c := NewClient("a")
	hub.Register(c)
	hub.Close()

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client not disconnected")
	}

	// Calls after close must not block
	hub.Unregister(c)
}

func TestHubManagerPublishStats(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	// No hub yet: publishing is a no-op
	m.PublishStats(model.RealTimeStats{TournamentID: "t-1"})
	assert.Nil(t, m.GetHub("t-1"))

	hub := m.GetOrCreateHub("t-1")
	assert.Same(t, hub, m.GetOrCreateHub("t-1"))

	c := NewClient("a")
	hub.Register(c)

	m.PublishStats(model.RealTimeStats{TournamentID: "t-1", Queued: 7, SuccessRate: 0.5})

	msg := receive(t, c)
	assert.Contains(t, msg, "event: stats\n")
	assert.Contains(t, msg, `"queued":7`)
	assert.Contains(t, msg, `"success_rate":0.5`)
}

func TestHubManagerCleanupEmptyHubs(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	busy := m.GetOrCreateHub("busy")
	m.GetOrCreateHub("idle")
	busy.Register(NewClient("a"))

	require.Eventually(t, func() bool { return busy.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.CleanupEmptyHubs())
	assert.NotNil(t, m.GetHub("busy"))
	assert.Nil(t, m.GetHub("idle"))
}
