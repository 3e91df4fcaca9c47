package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCreateGroupMessage(t *testing.T) {
	l := NewLedger()

	first := l.CreateGroupMessage("c1", "alice", "hello")
	second := l.CreateGroupMessage("c1", "alice", "world")

	assert.Equal(t, MessageSent, first.Status)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Less(t, first.Seq, second.Seq, "sequence orders messages for display")

	found, ok := l.FindGroupMessage(first.ID)
	require.True(t, ok)
	assert.Equal(t, "hello", found.Text)
}

func TestLedgerGroupDeliveredIdempotent(t *testing.T) {
	l := NewLedger()
	m := l.CreateGroupMessage("c1", "alice", "hi")

	updated, count, ok := l.MarkGroupDelivered(m.ID, "c2")
	require.True(t, ok)
	assert.Equal(t, MessageDelivered, updated.Status)
	assert.Equal(t, 1, count)
	assert.False(t, updated.DeliveredAt.IsZero())

	// Same recipient again: no double count.
	_, count, ok = l.MarkGroupDelivered(m.ID, "c2")
	require.True(t, ok)
	assert.Equal(t, 1, count)

	_, count, ok = l.MarkGroupDelivered(m.ID, "c3")
	require.True(t, ok)
	assert.Equal(t, 2, count)

	_, _, ok = l.MarkGroupDelivered("unknown", "c2")
	assert.False(t, ok, "unknown ids are reported, not errors")
}

func TestLedgerGroupReadJumpsFromSent(t *testing.T) {
	l := NewLedger()
	m := l.CreateGroupMessage("c1", "alice", "hi")

	// Read without a prior delivery ack: delivered is implied.
	updated, count, ok := l.MarkGroupRead(m.ID, "c2")
	require.True(t, ok)
	assert.Equal(t, MessageRead, updated.Status)
	assert.Equal(t, 1, count)

	// A late delivery ack must not regress the status.
	updated, _, ok = l.MarkGroupDelivered(m.ID, "c3")
	require.True(t, ok)
	assert.Equal(t, MessageRead, updated.Status)

	// Read acks stay idempotent.
	_, count, ok = l.MarkGroupRead(m.ID, "c2")
	require.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestLedgerPrivateDeliveredOnce(t *testing.T) {
	l := NewLedger()
	m := l.CreatePrivateMessage("c1", "alice", "c2", "bob", "psst")
	assert.Equal(t, MessageSent, m.Status)

	first, ok := l.MarkPrivateDelivered(m.ID)
	require.True(t, ok)
	assert.Equal(t, MessageDelivered, first.Status)
	require.False(t, first.DeliveredAt.IsZero())

	again, ok := l.MarkPrivateDelivered(m.ID)
	require.True(t, ok)
	assert.Equal(t, first.DeliveredAt, again.DeliveredAt, "deliveredAt is set once")

	_, ok = l.MarkPrivateDelivered("unknown")
	assert.False(t, ok)
}

func TestLedgerPrivateReadValidatesRecipient(t *testing.T) {
	l := NewLedger()
	m := l.CreatePrivateMessage("c1", "alice", "c2", "bob", "psst")

	// A third party acking the read is treated as not found.
	_, ok := l.MarkPrivateRead(m.ID, "c3")
	assert.False(t, ok)

	stored, ok := l.FindPrivateMessage(m.ID)
	require.True(t, ok)
	assert.Equal(t, MessageSent, stored.Status, "mismatch must not mutate state")

	read, ok := l.MarkPrivateRead(m.ID, "c2")
	require.True(t, ok)
	assert.Equal(t, MessageRead, read.Status)
	assert.False(t, read.ReadAt.IsZero())

	// Delivered after read: status stays read.
	after, ok := l.MarkPrivateDelivered(m.ID)
	require.True(t, ok)
	assert.Equal(t, MessageRead, after.Status)
}

func TestLedgerStatusNeverRegresses(t *testing.T) {
	l := NewLedger()
	m := l.CreateGroupMessage("c1", "alice", "hi")

	steps := []MessageStatus{}
	record := func(s MessageStatus) { steps = append(steps, s) }

	u, _, _ := l.MarkGroupDelivered(m.ID, "c2")
	record(u.Status)
	u, _, _ = l.MarkGroupRead(m.ID, "c2")
	record(u.Status)
	u, _, _ = l.MarkGroupDelivered(m.ID, "c4")
	record(u.Status)
	u, _, _ = l.MarkGroupRead(m.ID, "c4")
	record(u.Status)

	rank := map[MessageStatus]int{MessageSent: 0, MessageDelivered: 1, MessageRead: 2}
	for i := 1; i < len(steps); i++ {
		assert.GreaterOrEqual(t, rank[steps[i]], rank[steps[i-1]],
			"status went backwards: %v", steps)
	}
}
