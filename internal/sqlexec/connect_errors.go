// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"tenantforge/cli/internal/connspec"
	"tenantforge/cli/internal/errors"
	"tenantforge/cli/internal/logging"
)

// SQLSTATE codes reported during the startup handshake.
const (
	codeInvalidPassword      = "28P01"
	codeInvalidAuthorization = "28000"
	codeInvalidCatalogName   = "3D000"
)

// classifyConnectError turns a handshake failure into one of the connect kinds.
// The server's SQLSTATE wins when present; otherwise the error text and the
// network error chain decide.
func classifyConnectError(spec connspec.Spec, err error) *errors.E {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidPassword, codeInvalidAuthorization:
			return authFailed(err).WithCode(pgErr.Code)
		case codeInvalidCatalogName:
			return dbNotFound(spec, err).WithCode(pgErr.Code)
		}
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "password authentication failed"):
		return authFailed(err)
	case isConnectionRefusedError(err):
		return errors.Wrap(errors.ConnectionRefused,
			fmt.Sprintf("connection refused: could not reach %s, check that the server is running and the port is correct", spec.Address()), err)
	case strings.Contains(text, "does not exist"):
		return dbNotFound(spec, err)
	case isTimeoutError(err):
		return errors.Wrap(errors.ConnectFailed, fmt.Sprintf("timed out connecting to %s", spec.Address()), err)
	case isDNSError(err):
		return errors.Wrap(errors.ConnectFailed, fmt.Sprintf("cannot resolve host %q", spec.Host), err)
	}

	e := errors.Wrap(errors.ConnectFailed, "could not connect to database: "+logging.Mask(err.Error()), err)
	if pgErr != nil {
		e.WithCode(pgErr.Code)
	}
	return e
}

func authFailed(err error) *errors.E {
	return errors.Wrap(errors.AuthenticationFailed, "authentication failed: invalid user or password", err)
}

func dbNotFound(spec connspec.Spec, err error) *errors.E {
	return errors.Wrap(errors.DatabaseNotFound, fmt.Sprintf("database %q does not exist", spec.Database), err)
}

func isTimeoutError(err error) bool {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return stderrors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	if stderrors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}
