// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pterm/pterm"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/errors"
	"tenantforge/cli/internal/logging"
)

// State is a step of one connection's execution.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateSchemaSet  State = "schema_set"
	StateRunning    State = "running"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
	StateFailed     State = "failed"
)

type ctxKey struct{}

// WithInvocationID tags ctx so every log line of one invocation shares an id.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func invocationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Executor drives one connection from connect to commit or failure.
type Executor struct {
	dialer Dialer
	logger *pterm.Logger
}

// NewExecutor creates an Executor. A nil logger discards output.
func NewExecutor(dialer Dialer, logger *pterm.Logger) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Executor{dialer: dialer, logger: logger}
}

// Execute runs sql on spec using the strategy in decision. It never returns an
// error: every failure becomes a failed ExecutionResult for this connection.
func (e *Executor) Execute(ctx context.Context, spec connspec.Spec, sql string, decision Decision) ExecutionResult {
	res, _ := e.execute(ctx, spec, sql, decision)
	return res
}

// run carries the per-connection state through execute.
type run struct {
	e     *Executor
	ctx   context.Context
	spec  connspec.Spec
	state State
	start time.Time
}

func (r *run) transition(to State) {
	r.e.logger.Trace("state change", r.e.logger.Args(
		"invocation", invocationID(r.ctx), "connection", r.spec.ID, "from", r.state, "to", to))
	r.state = to
}

func (r *run) succeed(msg string) (ExecutionResult, State) {
	r.transition(StateCommitted)
	r.e.logger.Info(msg, r.e.logger.Args(
		"invocation", invocationID(r.ctx), "connection", r.spec.ID,
		"elapsed", durafmt.ParseShort(time.Since(r.start)).String()))
	return ExecutionResult{ConnectionID: r.spec.ID, Success: true, Message: msg}, r.state
}

func (r *run) fail(terminal State, err *errors.E) (ExecutionResult, State) {
	r.transition(terminal)
	args := []any{"invocation", invocationID(r.ctx), "connection", r.spec.ID, "kind", err.Kind}
	if err.Code != "" {
		args = append(args, "code", err.Code)
	}
	if err.Err != nil {
		args = append(args, "error", logging.Mask(err.Err.Error()))
	}
	r.e.logger.Error(err.Message, r.e.logger.Args(args...))
	return ExecutionResult{ConnectionID: r.spec.ID, Success: false, Message: err.Message}, r.state
}

func (e *Executor) execute(ctx context.Context, spec connspec.Spec, sql string, decision Decision) (ExecutionResult, State) {
	r := &run{e: e, ctx: ctx, spec: spec, state: StateIdle, start: time.Now()}

	r.transition(StateConnecting)
	drv, err := e.dialer.Connect(ctx, spec)
	if err != nil {
		return r.fail(StateFailed, asConnectError(spec, err))
	}
	defer func() {
		if cerr := drv.Close(context.WithoutCancel(ctx)); cerr != nil {
			e.logger.Warn("close failed", e.logger.Args("connection", spec.ID, "error", logging.Mask(cerr.Error())))
		}
	}()
	e.logger.Debug("connected", e.logger.Args("invocation", invocationID(ctx), "connection", spec.ID, "address", spec.Address()))

	if spec.Schema != "" {
		if err := drv.Err(); err != nil {
			return r.fail(StateFailed, lost(err))
		}
		if err := drv.SetSchema(ctx, spec.Schema); err != nil {
			return r.fail(StateFailed, stepError(drv, errors.SchemaFailed, fmt.Sprintf("failed to set schema %q", spec.Schema), err))
		}
		r.transition(StateSchemaSet)
	}

	if err := drv.Err(); err != nil {
		return r.fail(StateFailed, lost(err))
	}
	r.transition(StateRunning)

	if !decision.RequiresBatch {
		rows, err := drv.Exec(ctx, sql)
		if err != nil {
			return r.fail(StateFailed, stepError(drv, errors.SimpleExecutionFailed, "", err))
		}
		return r.succeed("SQL executed successfully. Rows affected: " + humanize.Comma(rows))
	}

	return e.runBatch(r, drv, sql, decision.Reason)
}

func (e *Executor) runBatch(r *run, drv Driver, sql string, reason Reason) (ExecutionResult, State) {
	ctx := r.ctx
	tx, err := drv.Begin(ctx)
	if err != nil {
		return r.fail(StateFailed, stepError(drv, errors.TransactionBeginFailed, "failed to begin transaction", err))
	}

	rollback := func() State {
		if rerr := tx.Rollback(context.WithoutCancel(ctx)); rerr != nil {
			e.logger.Warn("rollback failed", e.logger.Args("connection", r.spec.ID, "error", logging.Mask(rerr.Error())))
			return StateFailed
		}
		return StateRolledBack
	}

	// search_path is reissued inside the transaction.
	if r.spec.Schema != "" {
		if err := tx.SetSchema(ctx, r.spec.Schema); err != nil {
			terminal := rollback()
			return r.fail(terminal, stepError(drv, errors.SchemaFailed, fmt.Sprintf("failed to set schema %q in transaction", r.spec.Schema), err))
		}
	}

	if err := drv.Err(); err != nil {
		rollback()
		return r.fail(StateFailed, lost(err))
	}
	rows, err := tx.ExecBatch(ctx, sql)
	if err != nil {
		terminal := rollback()
		return r.fail(terminal, stepError(drv, errors.BatchExecutionFailed, fmt.Sprintf("batch failed (%s)", reason.Label()), err))
	}

	if err := tx.Commit(ctx); err != nil {
		return r.fail(StateFailed, stepError(drv, errors.CommitFailed, "commit failed", err))
	}
	return r.succeed(fmt.Sprintf("Batch executed successfully (%s). Rows affected: %s", reason.Label(), humanize.Comma(rows)))
}

// stepError classifies a failed step. The server terminating an idle session
// only surfaces as the next step's error, so a connection the driver now
// reports as gone, or a fatal server error, is a lost connection rather than
// a failure of the step itself.
func stepError(drv Driver, kind errors.Kind, prefix string, err error) *errors.E {
	if drv.Err() != nil || connectionLost(err) {
		return lost(err)
	}
	return dbError(kind, prefix, err)
}

// connectionLost reports a server error that ends the session: FATAL or PANIC
// severity, or an operator intervention such as admin_shutdown (57P01).
func connectionLost(err error) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Severity {
	case "FATAL", "PANIC":
		return true
	}
	return strings.HasPrefix(pgErr.Code, "57P")
}

// dbError prefers the server's message and SQLSTATE; other errors fall back to
// their masked text. prefix labels the failing step and may be empty for a
// server error on a direct execution.
func dbError(kind errors.Kind, prefix string, err error) *errors.E {
	var msg, code string
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		msg = fmt.Sprintf("database error: %s (code: %s)", pgErr.Message, pgErr.Code)
		code = pgErr.Code
	} else {
		msg = logging.Mask(err.Error())
		if prefix == "" {
			prefix = "error executing SQL"
		}
	}
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	return errors.Wrap(kind, msg, err).WithCode(code)
}

// asConnectError keeps the kind chosen by the dialer and wraps anything else.
func asConnectError(spec connspec.Spec, err error) *errors.E {
	var e *errors.E
	if stderrors.As(err, &e) && e.Kind.IsConnect() {
		return e
	}
	return classifyConnectError(spec, err)
}

func lost(err error) *errors.E {
	var e *errors.E
	if stderrors.As(err, &e) {
		return e
	}
	var code string
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		code = pgErr.Code
	}
	return errors.Wrap(errors.ConnectFailed, "connection to the server was lost", err).WithCode(code)
}

// Ping connects to spec and closes the connection again. Failures carry the
// same connect error kinds and messages Execute reports.
func Ping(ctx context.Context, dialer Dialer, spec connspec.Spec) error {
	drv, err := dialer.Connect(ctx, spec)
	if err != nil {
		return asConnectError(spec, err)
	}
	if err := drv.Err(); err != nil {
		_ = drv.Close(context.WithoutCancel(ctx))
		return lost(err)
	}
	return drv.Close(ctx)
}
