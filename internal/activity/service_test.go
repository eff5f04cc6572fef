package activity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuguard/menuguard/internal/shared"
)

type fakeRepo struct {
	entries []Entry
	nextID  int64
}

func (f *fakeRepo) Insert(_ context.Context, e Entry) error {
	f.nextID++
	e.ID = f.nextID
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ Filters, limit, offset int) ([]Entry, error) {
	// Newest first, same as the SQL ordering.
	reversed := make([]Entry, len(f.entries))
	for i, e := range f.entries {
		reversed[len(f.entries)-1-i] = e
	}
	if offset >= len(reversed) {
		return nil, nil
	}
	end := len(reversed)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return reversed[offset:end], nil
}

func (f *fakeRepo) DeleteAll(context.Context) (int64, error) {
	n := int64(len(f.entries))
	f.entries = nil
	return n, nil
}

func (f *fakeRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	kept := f.entries[:0]
	deleted := int64(0)
	for _, e := range f.entries {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

func seedEntries(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, svc.Record(context.Background(), Record{
			UserID: 1,
			Action: fmt.Sprintf("action_%d", i),
		}))
	}
}

func TestRecordFillsOriginFromContext(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	ctx := shared.ContextWithClientInfo(context.Background(), shared.ClientInfo{
		IPAddress: "203.0.113.9",
		UserAgent: "test-agent",
	})
	require.NoError(t, svc.Record(ctx, Record{UserID: 1, Action: "role_created", ObjectType: "role", ObjectID: "reviewer"}))

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, "203.0.113.9", entry.IPAddress)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.NotEmpty(t, entry.Description, "default description generated")
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestListPaging(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	seedEntries(t, svc, 25)

	first, err := svc.List(context.Background(), Filters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, first.Entries, 10)
	assert.True(t, first.Paging.HasNext)
	assert.Equal(t, 2, first.Paging.NextPage)
	assert.Zero(t, first.Paging.PrevPage)

	last, err := svc.List(context.Background(), Filters{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last.Entries, 5)
	assert.False(t, last.Paging.HasNext)
	assert.Equal(t, 2, last.Paging.PrevPage)
}

func TestListClampsPageSize(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	seedEntries(t, svc, 60)

	result, err := svc.List(context.Background(), Filters{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, result.Entries, maxPageSize)

	result, err = svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Len(t, result.Entries, defaultPageSize)
}

func TestClear(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	seedEntries(t, svc, 3)

	deleted, err := svc.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	// The clear leaves a single marker entry behind.
	require.Len(t, repo.entries, 1)
	marker := repo.entries[0]
	assert.Equal(t, "logs_cleared", marker.Action)
	assert.Equal(t, "Activity log was cleared", marker.Description)
	assert.Equal(t, int64(3), marker.Metadata["deleted"])
}

func TestClearMarkerCarriesOperatorAndOrigin(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	seedEntries(t, svc, 1)

	sess := &shared.Session{}
	sess.SetOperator("9")
	ctx := shared.ContextWithSession(context.Background(), sess)
	ctx = shared.ContextWithClientInfo(ctx, shared.ClientInfo{
		IPAddress: "10.0.0.9",
		UserAgent: "test-agent",
	})

	_, err := svc.Clear(ctx)
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	marker := repo.entries[0]
	assert.Equal(t, int64(9), marker.UserID)
	assert.Equal(t, "10.0.0.9", marker.IPAddress)
	assert.Equal(t, "test-agent", marker.UserAgent)
}

func TestCleanupOlderThan(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	seedEntries(t, svc, 2)

	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	seedEntries(t, svc, 1)

	deleted, err := svc.CleanupOlderThan(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Len(t, repo.entries, 1)
}

func TestWriteCSV(t *testing.T) {
	entries := []Entry{
		{
			ID:        1,
			UserID:    7,
			Action:    "role_created",
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Metadata:  map[string]any{"capabilities": []string{"read"}},
		},
	}
	data, err := WriteCSV(entries)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "id,created_at,user_id,action")
	assert.Contains(t, out, "role_created")
	assert.Contains(t, out, "2026-08-01T12:00:00Z")
}
