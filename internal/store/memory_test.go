package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got, "missing keys read as empty strings")

	require.NoError(t, s.Set(ctx, "state", "InMigration"))
	got, err = s.Get(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, "InMigration", got)

	require.NoError(t, s.Delete(ctx, "state"))
	got, err = s.Get(ctx, "state")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "events", "a", "b", "c", "d", "e"))

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{
			name:  "full list",
			start: 0,
			stop:  -1,
			want:  []string{"a", "b", "c", "d", "e"},
		},
		{
			name:  "inclusive window",
			start: 1,
			stop:  3,
			want:  []string{"b", "c", "d"},
		},
		{
			name:  "tail via negative start",
			start: -2,
			stop:  -1,
			want:  []string{"d", "e"},
		},
		{
			name:  "stop clamped to length",
			start: 3,
			stop:  100,
			want:  []string{"d", "e"},
		},
		{
			name:  "start past end",
			start: 7,
			stop:  9,
			want:  nil,
		},
		{
			name:  "inverted window",
			start: 4,
			stop:  2,
			want:  nil,
		},
		{
			name:  "negative start before head clamps to zero",
			start: -100,
			stop:  1,
			want:  []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Range(ctx, "events", tt.start, tt.stop)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStoreRangeEmptyKey(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.Range(context.Background(), "events", 0, -1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreLength(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n, err := s.Length(ctx, "events")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Append(ctx, "events", "a"))
	require.NoError(t, s.Append(ctx, "events", "b", "c"))
	n, err = s.Length(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, s.Delete(ctx, "events"))
	n, err = s.Length(ctx, "events")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestKeys(t *testing.T) {
	k := NewKeys("vmflow")

	assert.Equal(t, "vmflow:migration:state", k.State())
	assert.Equal(t, "vmflow:migration:events", k.Events())
	assert.Equal(t, "vmflow:history:abc-123", k.History("abc-123"))

	workflow := k.Workflow()
	assert.Len(t, workflow, 6)
	assert.NotContains(t, workflow, k.History("abc-123"),
		"history records survive a workflow wipe")

	// Empty prefix falls back to the default namespace.
	assert.Equal(t, "vmflow:migration:state", NewKeys("").State())
}
