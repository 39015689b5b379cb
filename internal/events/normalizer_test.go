package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRawVocabulary(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		expected MigrationEvent
	}{
		{
			name:  "vm started with short field names",
			entry: `{"type":"VmStartedEvent","vm":"web-01","moid":"vm-101"}`,
			expected: MigrationEvent{
				Type:    EventVMStarted,
				Success: true,
				VMName:  "web-01",
				VMMoid:  "vm-101",
			},
		},
		{
			name:  "vm migration copies source and destination",
			entry: `{"type":"VmMigratedEvent","vm":"web-01","moid":"vm-101","source":"host-1","destination":"host-2"}`,
			expected: MigrationEvent{
				Type:            EventVMMigration,
				Success:         true,
				VMName:          "web-01",
				VMMoid:          "vm-101",
				SourceMoid:      "host-1",
				DestinationMoid: "host-2",
			},
		},
		{
			name:  "vm shutdown with canonical field names",
			entry: `{"type":"VmShutdownEvent","vmName":"db-02","vmMoid":"vm-202"}`,
			expected: MigrationEvent{
				Type:    EventVMShutdown,
				Success: true,
				VMName:  "db-02",
				VMMoid:  "vm-202",
			},
		},
		{
			name:  "server shutdown",
			entry: `{"type":"ServerShutdownEvent","server":"esx-03","moid":"host-3"}`,
			expected: MigrationEvent{
				Type:       EventServerShutdown,
				Success:    true,
				ServerName: "esx-03",
				ServerMoid: "host-3",
			},
		},
		{
			name:  "already canonical event passes through",
			entry: `{"type":"VmMigration","vmName":"web-01","vmMoid":"vm-101","sourceMoid":"host-1","destinationMoid":"host-2","message":"relocated"}`,
			expected: MigrationEvent{
				Type:            EventVMMigration,
				Success:         true,
				VMName:          "web-01",
				VMMoid:          "vm-101",
				SourceMoid:      "host-1",
				DestinationMoid: "host-2",
				Message:         "relocated",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.entry))

			assert.False(t, got.Timestamp.IsZero(), "timestamp should default to now")
			got.Timestamp = time.Time{}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeUnrecognizedTypePassesThrough(t *testing.T) {
	got := Normalize([]byte(`{"type":"DatastoreRescan","vm":"web-01","moid":"vm-101"}`))

	assert.Equal(t, EventType("DatastoreRescan"), got.Type)
	assert.True(t, got.Success)
	assert.False(t, got.Timestamp.IsZero())
	assert.Empty(t, got.VMName, "no field mapping for unknown types")
	assert.Empty(t, got.VMMoid)
}

func TestNormalizeErrorForcesFailure(t *testing.T) {
	// An explicit success=true must lose against the error field.
	got := Normalize([]byte(`{"type":"VmMigratedEvent","vm":"web-01","success":true,"error":"vMotion timed out"}`))

	assert.False(t, got.Success)
	assert.Equal(t, "vMotion timed out", got.Error)
}

func TestNormalizeExplicitTimestampPreserved(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	entry, err := json.Marshal(map[string]interface{}{
		"type":      "VmStartedEvent",
		"vm":        "web-01",
		"timestamp": ts,
	})
	require.NoError(t, err)

	got := Normalize(entry)
	assert.True(t, got.Timestamp.Equal(ts))
}

func TestNormalizeMalformedEntry(t *testing.T) {
	got := Normalize([]byte(`{not json`))

	assert.False(t, got.Success)
	assert.Contains(t, got.Error, "malformed event entry")
}

func TestNormalizeSamePathsYieldIdenticalEvents(t *testing.T) {
	// The status read path normalizes one entry at a time while the
	// broadcast path normalizes batches; both must produce the same
	// canonical event for the same stored entry.
	entry := `{"type":"VmMigratedEvent","vm":"web-01","moid":"vm-101","source":"host-1","destination":"host-2"}`

	single := Normalize([]byte(entry))
	batch := NormalizeAll([]string{entry})
	require.Len(t, batch, 1)

	single.Timestamp = time.Time{}
	batch[0].Timestamp = time.Time{}
	assert.Equal(t, single, batch[0])
}

func TestNormalizeAllEmpty(t *testing.T) {
	assert.Nil(t, NormalizeAll(nil))
}
