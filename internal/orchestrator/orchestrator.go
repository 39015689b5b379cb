package orchestrator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"vmflow/internal/events"
	"vmflow/internal/executor"
	"vmflow/internal/history"
	"vmflow/internal/notify"
	"vmflow/internal/plan"
	"vmflow/internal/store"
	"vmflow/pkg/logging"

	"github.com/google/uuid"
)

const subsystem = "Orchestrator"

// subscriberBuffer sizes each subscriber channel. A subscriber that
// cannot keep up has notifications dropped rather than stalling the
// orchestrator.
const subscriberBuffer = 64

// Orchestrator is the migration workflow state machine. All durable
// state lives in the shared store; the struct itself holds only the
// injected collaborators and per-process ephemera (subscribers, the
// event broadcast cursor, the current run's plan summary).
//
// Multiple vmflow processes may run orchestrators against the same
// store. The "already running" guard is a check-then-act read, not a
// lock: two processes racing the same check can both pass it. The
// store-level race window is a documented limitation of the design.
type Orchestrator struct {
	store    store.Store
	keys     store.Keys
	analyzer *plan.Analyzer
	migrate  executor.Runner
	restart  executor.Runner
	notifier notify.Notifier
	recorder *history.Recorder

	mu          sync.Mutex
	subscribers []chan Notification

	// syncMu serializes the whole read-range-advance sequence in
	// SyncEvents. The post-transition sync and the background sweep run
	// concurrently; two callers observing the same cursor would
	// broadcast the same stored entries twice.
	syncMu      sync.Mutex
	eventCursor int64

	// Per-run context, valid only in the process that started the run.
	runID      string
	runUser    string
	runSummary *plan.Summary
}

// Config holds the collaborators injected into the orchestrator.
type Config struct {
	Store         store.Store
	Keys          store.Keys
	Analyzer      *plan.Analyzer
	MigrateRunner executor.Runner
	RestartRunner executor.Runner
	Notifier      notify.Notifier
	Recorder      *history.Recorder
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		store:    cfg.Store,
		keys:     cfg.Keys,
		analyzer: cfg.Analyzer,
		migrate:  cfg.MigrateRunner,
		restart:  cfg.RestartRunner,
		notifier: cfg.Notifier,
		recorder: cfg.Recorder,
	}
}

// Subscribe registers a notification channel. Every state transition
// and every newly observed canonical event is fanned out to all
// subscribers; a full channel drops the notification for that
// subscriber only.
func (o *Orchestrator) Subscribe() <-chan Notification {
	ch := make(chan Notification, subscriberBuffer)
	o.mu.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.mu.Unlock()
	return ch
}

// Unsubscribe removes a previously registered channel and closes it.
func (o *Orchestrator) Unsubscribe(ch <-chan Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, sub := range o.subscribers {
		if sub == ch {
			o.subscribers = append(o.subscribers[:i], o.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (o *Orchestrator) broadcast(n Notification) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, sub := range o.subscribers {
		select {
		case sub <- n:
		default:
			logging.Warn(subsystem, "Subscriber channel full, dropping %s notification", n.Kind)
		}
	}
}

// Run starts the background event sweep and blocks until ctx is done.
// The sweep catches events the executors append between state
// transitions, so gateway clients see progress during a long run.
func (o *Orchestrator) Run(ctx context.Context, sweepInterval time.Duration) error {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Second
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	logging.Info(subsystem, "Event sweep running every %s", sweepInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.SyncEvents(ctx)
		}
	}
}

// ExecuteMigrationPlan drives one migration or bulk-shutdown workflow
// described by the plan document at planPath. It blocks until the
// external executor finishes or times out; callers that must stay
// responsive run it on their own goroutine.
func (o *Orchestrator) ExecuteMigrationPlan(ctx context.Context, planPath, userID string) error {
	state := o.readState(ctx)
	if state != StateIdle && state != StateFailed {
		return NewValidationError("current state is %s, clear migration data first", state)
	}

	// A fresh run must not inherit the previous failure's event log.
	if state == StateFailed {
		o.store.Delete(ctx, o.keys.Events(), o.keys.Error())
		o.syncMu.Lock()
		o.eventCursor = 0
		o.syncMu.Unlock()
	}

	if _, err := os.Stat(planPath); err != nil {
		return NewValidationError("plan file not found: %s", planPath)
	}

	correlationID := uuid.NewString()
	o.mu.Lock()
	o.runID = correlationID
	o.runUser = userID
	o.runSummary = nil
	o.mu.Unlock()

	o.setState(ctx, StateInMigration)
	o.store.Set(ctx, o.keys.StartedAt(), time.Now().Format(time.RFC3339Nano))
	o.store.Set(ctx, o.keys.Operation(), fmt.Sprintf("executing migration plan %s", planPath))
	o.store.Delete(ctx, o.keys.EndedAt())
	o.record(ctx, correlationID, history.ActionStartMigration, userID, planPath)

	// Plan analysis enriches reporting only; execution proceeds without it.
	if summary, err := o.analyzer.Analyze(ctx, planPath); err != nil {
		logging.Warn(subsystem, "Plan analysis failed for %s, continuing without metadata: %v", planPath, err)
	} else {
		o.mu.Lock()
		o.runSummary = summary
		o.mu.Unlock()
		logging.Info(subsystem, "Plan %s: type=%s, %d VM(s), %d source host(s)",
			planPath, summary.MigrationType, summary.TotalVMsCount, len(summary.SourceServers))
	}

	result, runErr := o.migrate.Run(ctx, planPath)

	var execErr error
	if runErr == nil && result.Success() {
		o.setState(ctx, StateMigrated)
		o.record(ctx, correlationID, history.ActionCompleteMigration, userID, "")
		logging.Info(subsystem, "Migration plan %s completed", planPath)
	} else {
		message := executionMessage(result, runErr)
		o.setState(ctx, StateFailed)
		o.store.Set(ctx, o.keys.Error(), message)
		o.record(ctx, correlationID, history.ActionFailedMigration, userID, message)
		logging.Error(subsystem, runErr, "Migration plan %s failed: %s", planPath, message)
		execErr = &ExecutionError{Message: message}
	}

	o.store.Delete(ctx, o.keys.Operation())
	o.store.Set(ctx, o.keys.EndedAt(), time.Now().Format(time.RFC3339Nano))
	o.SyncEvents(ctx)
	o.signalCompletion(correlationID, userID, execErr)

	return execErr
}

// ExecuteRestartPlan restarts the estate after a completed migration.
// Restart is terminal: on success all migration data is cleared and the
// workflow returns to Idle.
func (o *Orchestrator) ExecuteRestartPlan(ctx context.Context, userID string) error {
	state := o.readState(ctx)
	if state != StateMigrated {
		return NewValidationError("current state is %s, only a completed migration can be restarted", state)
	}

	o.mu.Lock()
	correlationID := o.runID
	o.mu.Unlock()
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	o.setState(ctx, StateRestarting)
	o.store.Set(ctx, o.keys.Operation(), "restarting servers")
	o.record(ctx, correlationID, history.ActionStartRestart, userID, "")

	result, runErr := o.restart.Run(ctx)

	if runErr == nil && result.Success() {
		o.record(ctx, correlationID, history.ActionCompleteRestart, userID, "")
		// Restart success is terminal; no migration history survives it.
		if err := o.ClearMigrationData(ctx); err != nil {
			logging.Warn(subsystem, "Post-restart clear failed: %v", err)
		}
		logging.Info(subsystem, "Restart completed, workflow idle")
		return nil
	}

	message := executionMessage(result, runErr)
	o.setState(ctx, StateFailed)
	o.store.Set(ctx, o.keys.Error(), message)
	o.store.Delete(ctx, o.keys.Operation())
	o.store.Set(ctx, o.keys.EndedAt(), time.Now().Format(time.RFC3339Nano))
	o.record(ctx, correlationID, history.ActionFailedRestart, userID, message)
	o.SyncEvents(ctx)
	logging.Error(subsystem, runErr, "Restart failed: %s", message)
	return &ExecutionError{Message: message}
}

// CancelMigration marks the running workflow Failed. Cancellation is
// advisory and state-only: an in-flight executor is not killed and may
// later overwrite this terminal state with its own. Both are documented
// limitations carried over from the design.
func (o *Orchestrator) CancelMigration(ctx context.Context) error {
	state := o.readState(ctx)
	if state == StateIdle || state == StateFailed {
		return NewValidationError("no active migration to cancel")
	}

	o.mu.Lock()
	correlationID := o.runID
	userID := o.runUser
	o.mu.Unlock()
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	o.setState(ctx, StateFailed)
	o.store.Set(ctx, o.keys.Error(), cancelledByUser)
	o.store.Delete(ctx, o.keys.Operation())
	o.store.Set(ctx, o.keys.EndedAt(), time.Now().Format(time.RFC3339Nano))
	o.record(ctx, correlationID, history.ActionCancelMigration, userID, "")
	logging.Info(subsystem, "Migration cancelled from state %s", state)
	return nil
}

// ClearMigrationData wipes every persisted workflow field. Clearing an
// already empty workflow is a no-op success.
func (o *Orchestrator) ClearMigrationData(ctx context.Context) error {
	o.store.Delete(ctx, o.keys.Workflow()...)
	o.syncMu.Lock()
	o.eventCursor = 0
	o.syncMu.Unlock()
	o.mu.Lock()
	o.runID = ""
	o.runUser = ""
	o.runSummary = nil
	o.mu.Unlock()
	o.broadcast(Notification{Kind: NotificationState, State: StateIdle})
	logging.Info(subsystem, "Migration data cleared")
	return nil
}

// Status assembles the workflow snapshot from independent store reads.
// It never fails: an unreadable field degrades to its default.
func (o *Orchestrator) Status(ctx context.Context) Status {
	status := Status{State: o.readState(ctx)}

	entries, _ := o.store.Range(ctx, o.keys.Events(), 0, -1)
	status.Events = events.NormalizeAll(entries)

	if op, _ := o.store.Get(ctx, o.keys.Operation()); op != "" {
		status.CurrentOperation = op
	}
	status.StartTime = o.readTime(ctx, o.keys.StartedAt())
	status.EndTime = o.readTime(ctx, o.keys.EndedAt())
	if errMsg, _ := o.store.Get(ctx, o.keys.Error()); errMsg != "" {
		status.Error = errMsg
	}
	return status
}

// SyncEvents normalizes and broadcasts any events appended to the store
// past the process-local cursor. It is invoked after every state
// transition and by the background sweep; both paths share the same
// normalization code.
func (o *Orchestrator) SyncEvents(ctx context.Context) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()

	entries, _ := o.store.Range(ctx, o.keys.Events(), o.eventCursor, -1)
	if len(entries) == 0 {
		return
	}
	o.eventCursor += int64(len(entries))

	for _, ev := range events.NormalizeAll(entries) {
		ev := ev
		o.broadcast(Notification{Kind: NotificationEvent, Event: &ev})
	}
}

// AppendEvent appends one canonical event to the shared log on behalf of
// in-process collaborators. Executors append their own entries directly.
func (o *Orchestrator) AppendEvent(ctx context.Context, payload string) {
	o.store.Append(ctx, o.keys.Events(), payload)
}

func (o *Orchestrator) readState(ctx context.Context) WorkflowState {
	raw, _ := o.store.Get(ctx, o.keys.State())
	if raw == "" {
		return StateIdle
	}
	return WorkflowState(raw)
}

func (o *Orchestrator) setState(ctx context.Context, state WorkflowState) {
	o.store.Set(ctx, o.keys.State(), string(state))
	o.broadcast(Notification{Kind: NotificationState, State: state})
}

func (o *Orchestrator) readTime(ctx context.Context, key string) *time.Time {
	raw, _ := o.store.Get(ctx, key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		logging.Warn(subsystem, "Unparseable timestamp under %s: %q", key, raw)
		return nil
	}
	return &t
}

func (o *Orchestrator) record(ctx context.Context, correlationID string, action history.Action, userID, detail string) {
	if o.recorder == nil {
		return
	}
	o.recorder.Record(ctx, correlationID, action, userID, detail)
}

// signalCompletion raises the structured completion report for a
// finished migration run. Delivery is fire-and-forget on a detached
// context so a slow or failing notification collaborator can never
// delay the orchestration path.
func (o *Orchestrator) signalCompletion(correlationID, userID string, execErr error) {
	if o.notifier == nil {
		return
	}

	o.mu.Lock()
	summary := o.runSummary
	o.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entries, _ := o.store.Range(ctx, o.keys.Events(), 0, -1)
		canonical := events.NormalizeAll(entries)

		report := notify.CompletionReport{
			CorrelationID: correlationID,
			UserID:        userID,
			Succeeded:     execErr == nil,
			CompletedAt:   time.Now(),
			Events:        canonical,
		}
		if execErr != nil {
			report.Error = execErr.Error()
		}
		if summary != nil {
			report.MigrationType = summary.MigrationType
			report.SuccessfulVMs, report.FailedVMs = notify.PartitionVMs(summary.AffectedVMs, canonical)
		}

		o.notifier.NotifyCompletion(ctx, report)
	}()
}

// executionMessage extracts the operator-facing failure message from an
// executor outcome, preferring the process error and falling back to the
// executor's own output.
func executionMessage(result executor.Result, runErr error) string {
	if runErr != nil {
		return runErr.Error()
	}
	output := strings.TrimSpace(result.Output)
	if output != "" {
		return output
	}
	return fmt.Sprintf("executor exited with code %d", result.Code)
}
