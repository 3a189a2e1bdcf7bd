package logbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBus_SnapshotKeepsLastMessages(t *testing.T) {
	b := New(2)
	b.Publish("a", 1)
	b.Publish("b", 2)
	b.Publish("c", 3)

	snap := b.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].Type)
	assert.Equal(t, "c", snap[1].Type)
}

func TestBus_SubscribeReceivesNewMessages(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	b := New(10, WithClock(func() time.Time { return fixed }))
	ch, cancel := b.Subscribe(4)
	defer cancel()

	b.Publish(TypeOutcome, "x")

	select {
	case msg := <-ch:
		assert.Equal(t, TypeOutcome, msg.Type)
		assert.Equal(t, fixed.UnixMilli(), msg.Time)
		assert.Equal(t, "x", msg.Data)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New(10)
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish("one", nil)
	b.Publish("two", nil)

	msg := <-ch
	assert.Equal(t, "one", msg.Type)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected message %q", extra.Type)
	default:
	}
}

func TestBus_CloseClosesSubscribers(t *testing.T) {
	b := New(10)
	ch, cancel := b.Subscribe(1)
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
	cancel()

	late, _ := b.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)

	b.Publish("ignored", nil)
	assert.Empty(t, b.Snapshot())
}

func TestBus_LogMirrorsToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := New(10, WithLogger(zap.New(core)))

	b.Log("warn", "write-back failed", map[string]any{"username": "alice"})

	entries := logs.FilterMessage("write-back failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "alice", entries[0].ContextMap()["username"])

	snap := b.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, TypeLog, snap[0].Type)
	assert.Equal(t, LogData{Level: "warn", Msg: "write-back failed", Fields: map[string]any{"username": "alice"}}, snap[0].Data)
}
