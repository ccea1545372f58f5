// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer is quote- and comment-aware but knows no grammar. Rules are tried in
// order; the trailing Punct rule absorbs anything else, including unterminated
// quotes, so lexing never fails on well-formed UTF-8.
var sqlLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "lineComment", Pattern: `--[^\n]*`},
		{Name: "blockComment", Pattern: `/\*`, Action: lexer.Push("Comment")},
		{Name: "DollarOpen", Pattern: `\$([A-Za-z_][A-Za-z0-9_]*|)\$`, Action: lexer.Push("Dollar")},
		{Name: "EscapeString", Pattern: `[Ee]'(?:[^'\\]|\\.|'')*'`},
		{Name: "String", Pattern: `[BbXxNn]?'(?:[^']|'')*'`},
		{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
		{Name: "Semicolon", Pattern: `;`},
		{Name: "Word", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
		{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
		{Name: "whitespace", Pattern: `\s+`},
		{Name: "Punct", Pattern: `.`},
	},
	// Block comments nest as they do in PostgreSQL.
	"Comment": {
		{Name: "nestedComment", Pattern: `/\*`, Action: lexer.Push("Comment")},
		{Name: "commentEnd", Pattern: `\*/`, Action: lexer.Pop()},
		{Name: "commentBody", Pattern: `[^*/]+|[*/]`},
	},
	"Dollar": {
		{Name: "DollarClose", Pattern: `\$\1\$`, Action: lexer.Pop()},
		{Name: "DollarBody", Pattern: `[^$]+|\$`},
	},
})

type normalized struct {
	// text is the upper-cased token stream joined by single spaces, with
	// literals replaced by placeholders.
	text       string
	semicolons int
}

func normalize(sql string) (normalized, error) {
	lex, err := sqlLexer.LexString("", sql)
	if err != nil {
		return normalized{}, err
	}

	symbols := sqlLexer.Symbols()
	var (
		out      normalized
		parts    []string
		inDollar bool
	)
	for {
		tok, err := lex.Next()
		if err != nil {
			return normalized{}, err
		}
		if tok.EOF() {
			break
		}
		switch tok.Type {
		case symbols["DollarOpen"]:
			inDollar = true
			parts = append(parts, "$$")
		case symbols["DollarClose"]:
			inDollar = false
		case symbols["DollarBody"]:
		case symbols["EscapeString"], symbols["String"]:
			parts = append(parts, "''")
		case symbols["QuotedIdent"]:
			parts = append(parts, `""`)
		case symbols["Semicolon"]:
			out.semicolons++
			parts = append(parts, ";")
		default:
			if !inDollar {
				parts = append(parts, strings.ToUpper(tok.Value))
			}
		}
	}
	out.text = strings.Join(parts, " ")
	return out, nil
}
