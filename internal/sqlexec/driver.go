// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pterm/pterm"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/errors"
	"tenantforge/cli/internal/logging"
)

// Dialer opens one exclusively owned connection per call.
type Dialer interface {
	Connect(ctx context.Context, spec connspec.Spec) (Driver, error)
}

// Driver owns the lifecycle of one live connection.
type Driver interface {
	// SetSchema sets the session search_path.
	SetSchema(ctx context.Context, schema string) error
	// Exec runs sql as one direct execution and returns rows affected.
	Exec(ctx context.Context, sql string) (int64, error)
	// Begin opens an explicit transaction.
	Begin(ctx context.Context) (Tx, error)
	// Err reports that the connection is gone, either seen by the background
	// monitor or left closed by a failed step. It is nil while the connection
	// is healthy.
	Err() error
	// Close releases the connection. Calling it more than once is safe.
	Close(ctx context.Context) error
}

// Tx is an explicit transaction on a Driver's connection.
type Tx interface {
	SetSchema(ctx context.Context, schema string) error
	// ExecBatch sends sql as one multi-statement unit and returns the total rows
	// affected across its statements. The first statement error is returned.
	ExecBatch(ctx context.Context, sql string) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func searchPathSQL(schema string) string {
	return "SET search_path TO " + schema
}

// PgxDialer connects with pgx.
type PgxDialer struct {
	Logger *pterm.Logger
	// ConnectTimeout bounds the handshake. Zero means no limit.
	ConnectTimeout time.Duration
	// ApplicationName is reported to the server as application_name.
	ApplicationName string
}

// Connect dials spec and starts the connection monitor.
func (d *PgxDialer) Connect(ctx context.Context, spec connspec.Spec) (Driver, error) {
	cfg, err := pgx.ParseConfig(spec.ConnString())
	if err != nil {
		return nil, errors.Wrap(errors.ConnectFailed, "invalid connection settings", err)
	}
	if d.ConnectTimeout > 0 {
		cfg.ConnectTimeout = d.ConnectTimeout
	}
	if d.ApplicationName != "" {
		cfg.RuntimeParams["application_name"] = d.ApplicationName
	}

	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	drv := &pgxDriver{
		id:      spec.ID,
		logger:  logger,
		notices: make(chan *pgconn.Notice, 16),
		stop:    make(chan struct{}),
	}
	cfg.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
		select {
		case drv.notices <- n:
		default:
		}
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, classifyConnectError(spec, err)
	}
	drv.conn = conn
	drv.wg.Add(1)
	go drv.monitor(conn.PgConn().CleanupDone())
	return drv, nil
}

type pgxDriver struct {
	id      string
	conn    *pgx.Conn
	logger  *pterm.Logger
	notices chan *pgconn.Notice
	stop    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	err     error
	closing bool
	once    sync.Once
}

// monitor forwards server notices to the logger and records an unexpected
// close of the underlying connection.
func (d *pgxDriver) monitor(cleanup <-chan struct{}) {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.notices:
			d.logNotice(n)
		case <-cleanup:
			d.mu.Lock()
			if !d.closing && d.err == nil {
				d.err = errors.New(errors.ConnectFailed, "connection to the server was lost")
			}
			lost := !d.closing
			d.mu.Unlock()
			if lost {
				d.logger.Warn("connection lost", d.logger.Args("connection", d.id))
			}
			return
		case <-d.stop:
			return
		}
	}
}

func (d *pgxDriver) logNotice(n *pgconn.Notice) {
	d.logger.Debug("server notice", d.logger.Args("connection", d.id, "severity", n.Severity, "message", n.Message))
}

func (d *pgxDriver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if !d.closing && d.conn.IsClosed() {
		d.err = errors.New(errors.ConnectFailed, "connection to the server was lost")
	}
	return d.err
}

func (d *pgxDriver) SetSchema(ctx context.Context, schema string) error {
	_, err := d.conn.Exec(ctx, searchPathSQL(schema))
	return err
}

func (d *pgxDriver) Exec(ctx context.Context, sql string) (int64, error) {
	tag, err := d.conn.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (d *pgxDriver) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

func (d *pgxDriver) Close(ctx context.Context) error {
	var err error
	d.once.Do(func() {
		d.mu.Lock()
		d.closing = true
		d.mu.Unlock()
		err = d.conn.Close(ctx)
		close(d.stop)
		d.wg.Wait()
	})
	return err
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) SetSchema(ctx context.Context, schema string) error {
	_, err := t.tx.Exec(ctx, searchPathSQL(schema))
	return err
}

func (t *pgxTx) ExecBatch(ctx context.Context, sql string) (int64, error) {
	results, err := t.tx.Conn().PgConn().Exec(ctx, sql).ReadAll()
	if err != nil {
		return 0, err
	}
	var rows int64
	for _, r := range results {
		if r.Err != nil {
			return 0, r.Err
		}
		rows += r.CommandTag.RowsAffected()
	}
	return rows, nil
}

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if stderrors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
