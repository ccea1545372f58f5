// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs one SQL script against many tenant databases.
//
// The Orchestrator walks the requested connections in order and hands each one to
// the Executor, which connects through a Dialer, optionally sets the session
// search_path, and runs the script either as one direct statement or as a
// multi-statement batch inside an explicit transaction. The Classifier decides
// which strategy a script needs. Every connection yields exactly one
// ExecutionResult; failures never escape as invocation errors.
package sqlexec

import "tenantforge/cli/internal/connspec"

// Request is the payload accepted by the remote dispatch boundaries.
type Request struct {
	SQL         string           `json:"sql"`
	Connections []connspec.Input `json:"connections"`
}

// Reason explains why a script requires batch execution.
type Reason string

const (
	ReasonNone                Reason = "NONE"
	ReasonDDL                 Reason = "DDL"
	ReasonDCL                 Reason = "DCL"
	ReasonFunctionOrProcedure Reason = "FUNCTION_OR_PROCEDURE"
	ReasonCreateTableAsSelect Reason = "CREATE_TABLE_AS_SELECT"
	ReasonMultipleStatements  Reason = "MULTIPLE_STATEMENTS"
)

// Label returns a short human label used in result messages.
func (r Reason) Label() string {
	switch r {
	case ReasonDDL:
		return "DDL"
	case ReasonDCL:
		return "DCL"
	case ReasonFunctionOrProcedure:
		return "function/procedure"
	case ReasonCreateTableAsSelect:
		return "CREATE TABLE AS SELECT"
	case ReasonMultipleStatements:
		return "multiple statements"
	}
	return "simple"
}

// Decision is the outcome of classifying a script.
type Decision struct {
	RequiresBatch bool   `json:"requires_batch"`
	Reason        Reason `json:"reason"`
}

// ExecutionResult is the outcome for one connection.
type ExecutionResult struct {
	ConnectionID string `json:"connection_id"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
}

// Summary counts outcomes of one invocation.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Report is the ordered list of results plus its summary.
type Report struct {
	Decision Decision          `json:"decision"`
	Results  []ExecutionResult `json:"results"`
	Summary  Summary           `json:"summary"`
}

// Summarize counts successes and failures in results.
func Summarize(results []ExecutionResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
