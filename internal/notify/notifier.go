package notify

import (
	"context"
	"encoding/json"
	"time"

	"vmflow/internal/events"
	"vmflow/internal/plan"
	"vmflow/internal/store"
	"vmflow/pkg/logging"
)

const subsystem = "Notifier"

// CompletionReport is the structured signal raised when a migration
// workflow reaches a terminal state. It feeds the external notification
// collaborator (mail, chat, ticketing) listening on the pub/sub channel.
type CompletionReport struct {
	CorrelationID string                  `json:"correlationId"`
	UserID        string                  `json:"userId,omitempty"`
	MigrationType plan.MigrationType      `json:"migrationType"`
	Succeeded     bool                    `json:"succeeded"`
	Error         string                  `json:"error,omitempty"`
	CompletedAt   time.Time               `json:"completedAt"`
	Events        []events.MigrationEvent `json:"events"`
	SuccessfulVMs []plan.VMInfo           `json:"successfulVms"`
	FailedVMs     []plan.VMInfo           `json:"failedVms"`
}

// Notifier delivers completion reports. Implementations are strictly
// fire-and-forget: a delivery failure is logged and never surfaces to
// the orchestration path.
type Notifier interface {
	NotifyCompletion(ctx context.Context, report CompletionReport)
}

// ChannelNotifier publishes completion reports as JSON on a shared-store
// pub/sub channel.
type ChannelNotifier struct {
	store   store.Store
	channel string
}

// NewChannelNotifier creates a notifier publishing to channel.
func NewChannelNotifier(s store.Store, channel string) *ChannelNotifier {
	return &ChannelNotifier{store: s, channel: channel}
}

func (n *ChannelNotifier) NotifyCompletion(ctx context.Context, report CompletionReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		logging.Error(subsystem, err, "Failed to encode completion report %s", report.CorrelationID)
		return
	}
	if err := n.store.Publish(ctx, n.channel, string(payload)); err != nil {
		logging.Error(subsystem, err, "Failed to publish completion report %s", report.CorrelationID)
		return
	}
	logging.Info(subsystem, "Published completion report %s (%s, succeeded=%t, %d/%d VMs ok)",
		report.CorrelationID, report.MigrationType, report.Succeeded,
		len(report.SuccessfulVMs), len(report.SuccessfulVMs)+len(report.FailedVMs))
}

// PartitionVMs splits the affected VM list into the VMs that appear in a
// successful migration or shutdown event and those that do not.
func PartitionVMs(affected []plan.VMInfo, evs []events.MigrationEvent) (successful, failed []plan.VMInfo) {
	succeeded := make(map[string]bool)
	for _, ev := range evs {
		if !ev.Success {
			continue
		}
		if ev.Type == events.EventVMMigration || ev.Type == events.EventVMShutdown {
			succeeded[ev.VMMoid] = true
		}
	}

	for _, vm := range affected {
		if succeeded[vm.Moid] {
			successful = append(successful, vm)
		} else {
			failed = append(failed, vm)
		}
	}
	return successful, failed
}
