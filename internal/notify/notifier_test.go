package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vmflow/internal/events"
	"vmflow/internal/plan"
	"vmflow/internal/store"
)

func TestPartitionVMs(t *testing.T) {
	affected := []plan.VMInfo{
		{Moid: "vm-1", Name: "web-01"},
		{Moid: "vm-2", Name: "web-02"},
		{Moid: "vm-3", Name: "db-01"},
	}

	tests := []struct {
		name           string
		events         []events.MigrationEvent
		wantSuccessful []string
		wantFailed     []string
	}{
		{
			name:           "no events fails everything",
			events:         nil,
			wantSuccessful: nil,
			wantFailed:     []string{"vm-1", "vm-2", "vm-3"},
		},
		{
			name: "successful migration events",
			events: []events.MigrationEvent{
				{Type: events.EventVMMigration, VMMoid: "vm-1", Success: true},
				{Type: events.EventVMMigration, VMMoid: "vm-3", Success: true},
			},
			wantSuccessful: []string{"vm-1", "vm-3"},
			wantFailed:     []string{"vm-2"},
		},
		{
			name: "failed migration event does not count",
			events: []events.MigrationEvent{
				{Type: events.EventVMMigration, VMMoid: "vm-1", Success: false},
			},
			wantSuccessful: nil,
			wantFailed:     []string{"vm-1", "vm-2", "vm-3"},
		},
		{
			name: "shutdown events count as success",
			events: []events.MigrationEvent{
				{Type: events.EventVMShutdown, VMMoid: "vm-2", Success: true},
			},
			wantSuccessful: []string{"vm-2"},
			wantFailed:     []string{"vm-1", "vm-3"},
		},
		{
			name: "start events never count",
			events: []events.MigrationEvent{
				{Type: events.EventVMStarted, VMMoid: "vm-1", Success: true},
				{Type: events.EventServerShutdown, ServerMoid: "host-9", Success: true},
			},
			wantSuccessful: nil,
			wantFailed:     []string{"vm-1", "vm-2", "vm-3"},
		},
		{
			name: "events for unknown VMs are ignored",
			events: []events.MigrationEvent{
				{Type: events.EventVMMigration, VMMoid: "vm-99", Success: true},
			},
			wantSuccessful: nil,
			wantFailed:     []string{"vm-1", "vm-2", "vm-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			successful, failed := PartitionVMs(affected, tt.events)
			assert.Equal(t, tt.wantSuccessful, moids(successful))
			assert.Equal(t, tt.wantFailed, moids(failed))
		})
	}
}

func TestPartitionVMsPreservesOrder(t *testing.T) {
	affected := []plan.VMInfo{
		{Moid: "vm-3"},
		{Moid: "vm-1"},
		{Moid: "vm-2"},
	}
	evs := []events.MigrationEvent{
		{Type: events.EventVMMigration, VMMoid: "vm-1", Success: true},
		{Type: events.EventVMMigration, VMMoid: "vm-3", Success: true},
	}

	successful, failed := PartitionVMs(affected, evs)
	assert.Equal(t, []string{"vm-3", "vm-1"}, moids(successful),
		"partition keeps the affected-list order, not the event order")
	assert.Equal(t, []string{"vm-2"}, moids(failed))
}

type recordingStore struct {
	store.Store
	channel string
	payload string
}

func (s *recordingStore) Publish(ctx context.Context, channel, payload string) error {
	s.channel = channel
	s.payload = payload
	return nil
}

func TestChannelNotifierPublishesReport(t *testing.T) {
	rec := &recordingStore{Store: store.NewMemoryStore()}
	n := NewChannelNotifier(rec, "vmflow:notifications")

	n.NotifyCompletion(context.Background(), CompletionReport{
		CorrelationID: "run-1",
		UserID:        "alice",
		MigrationType: plan.TypeMigration,
		Succeeded:     true,
		SuccessfulVMs: []plan.VMInfo{{Moid: "vm-1", Name: "web-01"}},
	})

	require.Equal(t, "vmflow:notifications", rec.channel)

	var got CompletionReport
	require.NoError(t, json.Unmarshal([]byte(rec.payload), &got))
	assert.Equal(t, "run-1", got.CorrelationID)
	assert.Equal(t, "alice", got.UserID)
	assert.True(t, got.Succeeded)
	assert.Len(t, got.SuccessfulVMs, 1)
}

func moids(vms []plan.VMInfo) []string {
	var out []string
	for _, vm := range vms {
		out = append(out, vm.Moid)
	}
	return out
}
