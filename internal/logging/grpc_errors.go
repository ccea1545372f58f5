// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCErrorType represents the category of a remote executor error
type GRPCErrorType int

const (
	GRPCErrorUnknown GRPCErrorType = iota
	GRPCErrorNetwork
	GRPCErrorInvalid
	GRPCErrorTimeout
	GRPCErrorInternal
	GRPCErrorUnavailable
)

// ParseGRPCError categorizes an error returned by the remote executor.
// Status codes win; plain transport errors fall back to their text.
func ParseGRPCError(err error) GRPCErrorType {
	if err == nil {
		return GRPCErrorUnknown
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.InvalidArgument, codes.FailedPrecondition:
			return GRPCErrorInvalid
		case codes.DeadlineExceeded:
			return GRPCErrorTimeout
		case codes.Unavailable:
			if isReset(st.Message()) {
				return GRPCErrorNetwork
			}
			return GRPCErrorUnavailable
		case codes.Internal:
			return GRPCErrorInternal
		}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case isReset(lower):
		return GRPCErrorNetwork
	case strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout"):
		return GRPCErrorTimeout
	case strings.Contains(lower, "unavailable"):
		return GRPCErrorUnavailable
	}
	return GRPCErrorUnknown
}

func isReset(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "rst_stream") || strings.Contains(s, "connection reset")
}

// FormatRemoteError formats a remote executor failure in a user-friendly way
func FormatRemoteError(addr string, err error) string {
	errType := ParseGRPCError(err)

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Remote execution failed"))
	builder.WriteString("\n\n")

	switch errType {
	case GRPCErrorNetwork:
		builder.WriteString(fmt.Sprintf("The connection to %s was interrupted.\n", addr))
		builder.WriteString("Results for tenants already running on the server are not reported here.\n")
	case GRPCErrorInvalid:
		builder.WriteString("The server rejected the request.\n")
		if st, ok := status.FromError(err); ok {
			builder.WriteString("  " + Mask(st.Message()) + "\n")
		}
	case GRPCErrorUnavailable:
		builder.WriteString(fmt.Sprintf("No executor is reachable at %s.\n", addr))
		builder.WriteString("Start one with 'tenantforge serve' or check --remote.\n")
	case GRPCErrorTimeout:
		builder.WriteString("The server did not answer before the deadline.\n")
	case GRPCErrorInternal:
		builder.WriteString("The server hit an internal error.\n")
	default:
		builder.WriteString("The request could not be completed.\n")
	}

	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}

	return builder.String()
}

// PresentRemoteError displays a formatted remote executor error
func PresentRemoteError(addr string, err error) {
	fmt.Println()
	fmt.Println(FormatRemoteError(addr, err))
	fmt.Println()
}
