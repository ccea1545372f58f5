// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"github.com/pterm/pterm"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/errors"
	"tenantforge/cli/internal/logging"
)

// Invocation-level errors. Only malformed invocations produce them; per
// connection failures are always reported as results.
var (
	ErrEmptySQL              = stderrors.New("sql must not be empty")
	ErrDuplicateConnectionID = stderrors.New("duplicate connection id")
)

// IsInvocationError reports whether err rejects the invocation as a whole.
func IsInvocationError(err error) bool {
	return stderrors.Is(err, ErrEmptySQL) || stderrors.Is(err, ErrDuplicateConnectionID)
}

// Options configures an Orchestrator.
type Options struct {
	// Concurrency is the number of connections run at once. Values below 2
	// run connections one at a time.
	Concurrency int
	// Classifier picks the execution strategy.
	Classifier Classifier
	// SSLMode is applied to connections that do not set one.
	SSLMode string
}

// Orchestrator fans one script out to many connections.
type Orchestrator struct {
	exec   *Executor
	opts   Options
	logger *pterm.Logger
}

// NewOrchestrator creates an Orchestrator over dialer.
func NewOrchestrator(dialer Dialer, logger *pterm.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{exec: NewExecutor(dialer, logger), opts: opts, logger: logger}
}

// Run executes sql on every connection and returns one result per input, in
// input order. Results for invalid specs are produced without any I/O.
func (o *Orchestrator) Run(ctx context.Context, sql string, inputs []connspec.Input) (*Report, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, ErrEmptySQL
	}
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := seen[in.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateConnectionID, in.ID)
		}
		seen[in.ID] = struct{}{}
	}

	id := xid.New().String()
	ctx = WithInvocationID(ctx, id)
	start := time.Now()
	decision := o.opts.Classifier.Classify(sql)
	o.logger.Info("starting invocation", o.logger.Args(
		"invocation", id, "connections", len(inputs), "batch", decision.RequiresBatch, "reason", decision.Reason))
	o.logger.Debug("sql", o.logger.Args("invocation", id, "text", logging.Mask(sql)))

	results := make([]ExecutionResult, len(inputs))
	if o.opts.Concurrency < 2 {
		for i, in := range inputs {
			results[i] = o.runOne(ctx, in, sql, decision)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.opts.Concurrency)
		for i, in := range inputs {
			g.Go(func() error {
				results[i] = o.runOne(gctx, in, sql, decision)
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &Report{Decision: decision, Results: results, Summary: Summarize(results)}
	o.logger.Info("invocation finished", o.logger.Args(
		"invocation", id,
		"total", report.Summary.Total,
		"succeeded", report.Summary.Succeeded,
		"failed", report.Summary.Failed,
		"elapsed", durafmt.ParseShort(time.Since(start)).String()))
	return report, nil
}

func (o *Orchestrator) runOne(ctx context.Context, in connspec.Input, sql string, decision Decision) ExecutionResult {
	spec, err := connspec.New(in.WithDefaultSSLMode(o.opts.SSLMode))
	if err != nil {
		msg := "invalid connection: " + errors.MessageOf(err)
		o.logger.Error(msg, o.logger.Args("invocation", invocationID(ctx), "connection", in.ID))
		return ExecutionResult{ConnectionID: in.ID, Success: false, Message: msg}
	}
	return o.exec.Execute(ctx, spec, sql, decision)
}
