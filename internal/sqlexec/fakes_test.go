// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"sync"
	"time"

	"tenantforge/cli/internal/connspec"
)

// fakeDriver records the operations issued on one connection.
type fakeDriver struct {
	mu    sync.Mutex
	calls []string

	setSchemaErr  error
	execErr       error
	beginErr      error
	txSchemaErr   error
	batchErr      error
	commitErr     error
	lostErr       error
	// lostOnFailure is reported by Err once any step has failed.
	lostOnFailure error
	failed        bool
	rows          int64
	closed        int
}

func (d *fakeDriver) record(op string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, op)
}

func (d *fakeDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// step records a failing step so Err can report lostOnFailure.
func (d *fakeDriver) step(err error) error {
	if err != nil {
		d.mu.Lock()
		d.failed = true
		d.mu.Unlock()
	}
	return err
}

func (d *fakeDriver) SetSchema(_ context.Context, schema string) error {
	d.record("set_schema " + schema)
	return d.step(d.setSchemaErr)
}

func (d *fakeDriver) Exec(_ context.Context, _ string) (int64, error) {
	d.record("exec")
	if d.execErr != nil {
		return 0, d.step(d.execErr)
	}
	return d.rows, nil
}

func (d *fakeDriver) Begin(_ context.Context) (Tx, error) {
	d.record("begin")
	if d.beginErr != nil {
		return nil, d.step(d.beginErr)
	}
	return &fakeTx{d: d}, nil
}

func (d *fakeDriver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lostErr != nil {
		return d.lostErr
	}
	if d.failed {
		return d.lostOnFailure
	}
	return nil
}

func (d *fakeDriver) Close(_ context.Context) error {
	d.record("close")
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	return nil
}

type fakeTx struct {
	d *fakeDriver
}

func (t *fakeTx) SetSchema(_ context.Context, schema string) error {
	t.d.record("tx_set_schema " + schema)
	return t.d.step(t.d.txSchemaErr)
}

func (t *fakeTx) ExecBatch(_ context.Context, _ string) (int64, error) {
	t.d.record("exec_batch")
	if t.d.batchErr != nil {
		return 0, t.d.step(t.d.batchErr)
	}
	return t.d.rows, nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.d.record("commit")
	return t.d.step(t.d.commitErr)
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.d.record("rollback")
	return nil
}

// fakeDialer hands out a fakeDriver per connection id.
type fakeDialer struct {
	mu         sync.Mutex
	drivers    map[string]*fakeDriver
	connectErr map[string]error
	delay      map[string]time.Duration
	dialed     []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		drivers:    map[string]*fakeDriver{},
		connectErr: map[string]error{},
		delay:      map[string]time.Duration{},
	}
}

func (f *fakeDialer) driver(id string) *fakeDriver {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[id]
	if !ok {
		d = &fakeDriver{rows: 1}
		f.drivers[id] = d
	}
	return d
}

func (f *fakeDialer) Dialed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dialed...)
}

func (f *fakeDialer) Connect(_ context.Context, spec connspec.Spec) (Driver, error) {
	f.mu.Lock()
	f.dialed = append(f.dialed, spec.ID)
	err := f.connectErr[spec.ID]
	delay := f.delay[spec.ID]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return f.driver(spec.ID), nil
}
