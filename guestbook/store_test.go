package guestbook

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hometest "github.com/teranos/homepage/internal/testing"
	"github.com/teranos/homepage/pagination"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(hometest.CreateTestDB(t), nil)
}

func TestAppend(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2025, 3, 14, 15, 9, 26, 0, time.FixedZone("CET", 3600))
	store.timeNow = func() time.Time { return fixed }

	msg, err := store.Append(context.Background(), "alice", "hello there")
	require.NoError(t, err)

	assert.Equal(t, int64(1), msg.ID)
	assert.Equal(t, "alice", msg.Author)
	assert.Equal(t, "hello there", msg.Content)
	assert.True(t, fixed.Equal(msg.Timestamp))
	assert.Equal(t, time.UTC, msg.Timestamp.Location(), "timestamps are stored in UTC")

	second, err := store.Append(context.Background(), "bob", "hi")
	require.NoError(t, err)
	assert.Greater(t, second.ID, msg.ID)
}

func TestRead_NewestFirstWithCursor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		_, err := store.Append(ctx, "author", fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	page, err := store.Read(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []int64{7, 6, 5}, ids(page.Items))
	require.NotNil(t, page.Next)
	assert.Equal(t, int64(5), *page.Next)

	page, err = store.Read(ctx, pagination.Params{Cursor: page.Next, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 2}, ids(page.Items))
	require.NotNil(t, page.Next)

	page, err = store.Read(ctx, pagination.Params{Cursor: page.Next, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(page.Items))
	assert.Nil(t, page.Next)
}

func TestRead_ExactMultipleHasNoDanglingCursor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := store.Append(ctx, "a", "b")
		require.NoError(t, err)
	}

	page, err := store.Read(ctx, pagination.Params{Cursor: pagination.Cursor(3), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids(page.Items))
	assert.Nil(t, page.Next, "no empty trailing page")
}

func TestRead_CoverageUnaffectedByConcurrentAppends(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := store.Append(ctx, "a", "b")
		require.NoError(t, err)
	}

	var seen []int64
	p := pagination.Params{Limit: 4}
	for {
		page, err := store.Read(ctx, p)
		require.NoError(t, err)
		seen = append(seen, ids(page.Items)...)

		// New messages land at the newer end and never shift older pages
		_, err = store.Append(ctx, "late", "arrival")
		require.NoError(t, err)

		if page.Next == nil {
			break
		}
		p.Cursor = page.Next
	}

	assert.Equal(t, []int64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, seen)
}

func TestRead_Empty(t *testing.T) {
	store := newTestStore(t)

	page, err := store.Read(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.Next)
}

func TestRead_UnparsableTimestampReadsAsNow(t *testing.T) {
	db := hometest.CreateTestDB(t)
	store := NewStore(db, nil)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store.timeNow = func() time.Time { return now }

	_, err := db.Exec("INSERT INTO messages (author, content, timestamp) VALUES ('x', 'y', 'yesterday-ish')")
	require.NoError(t, err)

	page, err := store.Read(context.Background(), pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, now.Equal(page.Items[0].Timestamp))
}

func TestCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.Append(ctx, "a", "b")
	require.NoError(t, err)
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func ids(messages []Message) []int64 {
	out := make([]int64, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}
