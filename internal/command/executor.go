package command

import (
	"context"
	"fmt"
	"time"

	"cmdbar/internal/logging"
	"cmdbar/internal/store"
)

// Recorder keeps the history of executed commands.
type Recorder interface {
	Record(ctx context.Context, e store.HistoryEntry) error
}

// Outcome is the result of a run. A pending outcome is a normal answer:
// nothing ran and the caller should ask for confirmation.
type Outcome struct {
	Pending      bool
	Confirmation string
	Message      string
	Redirect     string
}

// Executor runs commands against an Applier, one transaction per command,
// and records each executed command.
type Executor struct {
	app     Applier
	history Recorder

	// Now stamps history entries.
	Now func() time.Time
}

// NewExecutor creates an executor. history may be nil.
func NewExecutor(app Applier, history Recorder) *Executor {
	return &Executor{app: app, history: history, Now: time.Now}
}

// Run executes cmd unless it needs a confirmation that confirmed does not
// give. Pending commands change nothing and are not recorded.
func (e *Executor) Run(ctx context.Context, cmd Command, confirmed bool) (Outcome, error) {
	meta := cmd.Meta()
	reqLog := logging.WithRequestID(logging.CategoryCommand, store.NewID()).
		WithField("actor", meta.Actor.ID).
		WithField("kind", string(cmd.Kind()))

	if !confirmed && cmd.NeedsConfirmation() {
		out := Outcome{Pending: true, Confirmation: cmd.Confirmation()}
		if p, ok := cmd.(interface{ PendingRedirect() string }); ok {
			out.Redirect = p.PendingRedirect()
		}
		reqLog.Info("Pending confirmation: %s", out.Confirmation)
		return out, nil
	}

	var res Result
	err := e.app.Atomically(ctx, func(ctx context.Context) error {
		var err error
		res, err = cmd.Execute(ctx, e.app)
		return err
	})
	if err != nil {
		reqLog.Warn("Command %q failed: %v", meta.Line, err)
		return Outcome{}, err
	}
	reqLog.Info("Executed %q: %s", meta.Line, res.Message)

	if e.history != nil {
		entry := store.HistoryEntry{
			ActorID:   meta.Actor.ID,
			Line:      meta.Line,
			Kind:      string(cmd.Kind()),
			Message:   res.Message,
			Redirect:  res.Redirect,
			CreatedAt: e.Now(),
		}
		if err := e.history.Record(ctx, entry); err != nil {
			return Outcome{}, fmt.Errorf("command executed but not recorded: %w", err)
		}
	}
	return Outcome{Message: res.Message, Redirect: res.Redirect}, nil
}

// Undo reverts an executed command in one transaction.
func (e *Executor) Undo(ctx context.Context, cmd Command) (Result, error) {
	var res Result
	err := e.app.Atomically(ctx, func(ctx context.Context) error {
		var err error
		res, err = cmd.Undo(ctx, e.app)
		return err
	})
	if err != nil {
		logging.CommandWarn("Undo of %q failed: %v", cmd.Meta().Line, err)
		return Result{}, err
	}
	logging.Command("Undid %q", cmd.Meta().Line)
	return res, nil
}
