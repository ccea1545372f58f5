// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"fmt"
	"strings"
)

// ClassifierMode selects how script text is inspected.
type ClassifierMode string

const (
	// ModeLexical tokenizes the script first so literals and comments never match.
	ModeLexical ClassifierMode = "lexical"
	// ModeSubstring matches keywords anywhere in the upper-cased text.
	ModeSubstring ClassifierMode = "substring"
)

// ParseClassifierMode maps a config value to a mode. Empty means lexical.
func ParseClassifierMode(s string) (ClassifierMode, error) {
	switch ClassifierMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLexical:
		return ModeLexical, nil
	case ModeSubstring:
		return ModeSubstring, nil
	}
	return "", fmt.Errorf("unknown classifier mode %q (want lexical or substring)", s)
}

var (
	ddlKeywords      = []string{"CREATE ", "ALTER ", "DROP ", "TRUNCATE ", "COMMENT ON"}
	dclKeywords      = []string{"GRANT ", "REVOKE "}
	routineKeywords  = []string{"CREATE FUNCTION", "CREATE OR REPLACE FUNCTION", "CREATE PROCEDURE", "CREATE OR REPLACE PROCEDURE"}
	ctasCreateTable  = "CREATE TABLE"
	ctasSelectClause = "AS SELECT"
)

// Classifier decides whether a script must run as a transactional batch.
type Classifier struct {
	Mode ClassifierMode
}

// Classify applies c's mode to sql.
func (c Classifier) Classify(sql string) Decision {
	if c.Mode == ModeSubstring {
		return ClassifyText(sql)
	}
	return Classify(sql)
}

// ClassifyText is the plain heuristic: keyword substrings over the upper-cased,
// trimmed text and a raw count of ';'. Keywords inside string literals,
// comments or identifiers produce false positives.
func ClassifyText(sql string) Decision {
	text := strings.ToUpper(strings.TrimSpace(sql))
	return decide(func(kw string) bool { return strings.Contains(text, kw) }, strings.Count(text, ";"))
}

// Classify tokenizes sql, dropping comments and masking string literals,
// dollar-quoted bodies and quoted identifiers, then applies the same rules as
// ClassifyText on whole tokens. Only real ';' tokens count as separators.
func Classify(sql string) Decision {
	n, err := normalize(sql)
	if err != nil {
		return ClassifyText(sql)
	}
	text := " " + n.text + " "
	return decide(func(kw string) bool {
		return strings.Contains(text, " "+strings.TrimSpace(kw)+" ")
	}, n.semicolons)
}

// decide evaluates the rules in priority order. FUNCTION_OR_PROCEDURE and
// CREATE_TABLE_AS_SELECT refine DDL: every text they match also matches DDL.
func decide(contains func(string) bool, semicolons int) Decision {
	switch {
	case containsAny(contains, ddlKeywords):
		switch {
		case containsAny(contains, routineKeywords):
			return Decision{RequiresBatch: true, Reason: ReasonFunctionOrProcedure}
		case contains(ctasCreateTable) && contains(ctasSelectClause):
			return Decision{RequiresBatch: true, Reason: ReasonCreateTableAsSelect}
		}
		return Decision{RequiresBatch: true, Reason: ReasonDDL}
	case containsAny(contains, dclKeywords):
		return Decision{RequiresBatch: true, Reason: ReasonDCL}
	case semicolons > 1:
		return Decision{RequiresBatch: true, Reason: ReasonMultipleStatements}
	}
	return Decision{Reason: ReasonNone}
}

func containsAny(contains func(string) bool, keywords []string) bool {
	for _, kw := range keywords {
		if contains(kw) {
			return true
		}
	}
	return false
}
