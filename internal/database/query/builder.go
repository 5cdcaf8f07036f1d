// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package query

import (
	"fmt"
	"strings"
)

// Predicate is one parameterized boolean SQL condition.
type Predicate struct {
	Clause string
	Args   []interface{}
}

// Never is a predicate that matches no rows.
var Never = Predicate{Clause: "FALSE"}

// AtLeast generates "column >= ?".
func AtLeast(column string, value interface{}) Predicate {
	return Predicate{Clause: column + " >= ?", Args: []interface{}{value}}
}

// AtMost generates "column <= ?".
func AtMost(column string, value interface{}) Predicate {
	return Predicate{Clause: column + " <= ?", Args: []interface{}{value}}
}

// Between generates the inclusive "column BETWEEN ? AND ?".
func Between(column string, lo, hi interface{}) Predicate {
	return Predicate{Clause: column + " BETWEEN ? AND ?", Args: []interface{}{lo, hi}}
}

// InInts generates "column IN (?, ?, ...)". An empty set matches nothing.
func InInts(column string, values []int) Predicate {
	if len(values) == 0 {
		return Never
	}
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return Predicate{
		Clause: fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")),
		Args:   args,
	}
}

// String renders the predicate with its arguments for plan inspection.
func (p Predicate) String() string {
	if len(p.Args) == 0 {
		return p.Clause
	}
	return fmt.Sprintf("%s %v", p.Clause, p.Args)
}

// WhereBuilder joins predicates with AND.
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// Add appends a predicate.
func (wb *WhereBuilder) Add(p Predicate) *WhereBuilder {
	return wb.AddClause(p.Clause, p.Args...)
}

// AddClause appends a raw condition with its arguments.
//
// Parameters:
//   - clause: SQL condition fragment (e.g., "trip_distance > ?")
//   - args: Arguments to bind to placeholders in the clause
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// Build returns the joined condition (without "WHERE") and its arguments.
// An empty builder yields "1=1".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// Literal renders s as a single-quoted SQL string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// LiteralList renders a DuckDB list literal of strings: ['a', 'b'].
func LiteralList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Literal(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
