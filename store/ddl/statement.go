// Package ddl parses the schema statements accepted by the store and keeps the
// resulting table definitions.
package ddl

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyStatement   = errors.New("empty statement")
	ErrInvalidStatement = errors.New("invalid statement")
	ErrUnknownType      = errors.New("unknown field type")
)

type Action int

const (
	DefineTable Action = iota + 1
	DefineField
	RemoveTable
)

// Statement is a parsed schema statement.
type Statement struct {
	Action     Action
	Table      string
	Schemafull bool      // DefineTable
	Field      string    // DefineField
	Type       FieldType // DefineField
}

// Split breaks a batch of ';' separated statements, dropping empty ones.
func Split(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Parse parses a single statement:
//
//	DEFINE TABLE <table> [SCHEMAFULL|SCHEMALESS]
//	DEFINE FIELD <field> ON [TABLE] <table> TYPE <type>
//	REMOVE TABLE <table>
func Parse(text string) (Statement, error) {
	tokens := strings.Fields(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	if len(tokens) == 0 {
		return Statement{}, ErrEmptyStatement
	}

	invalid := func(reason string) (Statement, error) {
		return Statement{}, errors.Wrapf(ErrInvalidStatement, "%s: %q", reason, text)
	}

	if len(tokens) < 3 {
		return invalid("too short")
	}

	verb, noun := strings.ToUpper(tokens[0]), strings.ToUpper(tokens[1])
	switch {
	case verb == "REMOVE" && noun == "TABLE":
		if len(tokens) != 3 {
			return invalid("unexpected tokens after table name")
		}
		return Statement{Action: RemoveTable, Table: tokens[2]}, nil

	case verb == "DEFINE" && noun == "TABLE":
		stmt := Statement{Action: DefineTable, Table: tokens[2]}
		for _, t := range tokens[3:] {
			switch strings.ToUpper(t) {
			case "SCHEMAFULL":
				stmt.Schemafull = true
			case "SCHEMALESS":
				stmt.Schemafull = false
			default:
				return invalid("unknown table clause " + t)
			}
		}
		return stmt, nil

	case verb == "DEFINE" && noun == "FIELD":
		stmt := Statement{Action: DefineField, Field: tokens[2]}
		rest := tokens[3:]
		if len(rest) < 2 || strings.ToUpper(rest[0]) != "ON" {
			return invalid("missing ON clause")
		}
		rest = rest[1:]
		if strings.ToUpper(rest[0]) == "TABLE" {
			rest = rest[1:]
		}
		if len(rest) < 3 || strings.ToUpper(rest[1]) != "TYPE" {
			return invalid("missing TYPE clause")
		}
		stmt.Table = rest[0]

		ft, err := ParseType(strings.Join(rest[2:], ""))
		if err != nil {
			return Statement{}, errors.Wrapf(err, "%q", text)
		}
		stmt.Type = ft
		return stmt, nil
	}

	return invalid("unsupported statement")
}
