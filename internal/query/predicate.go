// Package query provides an explicit predicate-expression type for
// filtered reads. Predicates compile to parameterized WHERE clauses;
// column names are checked against an allowlist and values are always
// bound as placeholders.
package query

import (
	"fmt"
	"strings"
)

// Op is a comparison operator in a leaf predicate.
type Op string

const (
	OpEq   Op = "="
	OpGt   Op = ">"
	OpLt   Op = "<"
	OpGe   Op = ">="
	OpLe   Op = "<="
	OpLike Op = "LIKE"
)

type logic string

const (
	logicAnd logic = "AND"
	logicOr  logic = "OR"
)

// Predicate is one node of a filter expression. A leaf compares a single
// column against a value; a composite joins sub-predicates with AND or
// OR. Build leaves with Eq/Gt/Lt/Ge/Le/Like and combine them with And/Or.
type Predicate struct {
	Field string
	Op    Op
	Value any

	parts []*Predicate
	join  logic
}

// Eq matches rows where field equals value.
func Eq(field string, value any) *Predicate {
	return &Predicate{Field: field, Op: OpEq, Value: value}
}

// Gt matches rows where field is greater than value.
func Gt(field string, value any) *Predicate {
	return &Predicate{Field: field, Op: OpGt, Value: value}
}

// Lt matches rows where field is less than value.
func Lt(field string, value any) *Predicate {
	return &Predicate{Field: field, Op: OpLt, Value: value}
}

// Ge matches rows where field is greater than or equal to value.
func Ge(field string, value any) *Predicate {
	return &Predicate{Field: field, Op: OpGe, Value: value}
}

// Le matches rows where field is less than or equal to value.
func Le(field string, value any) *Predicate {
	return &Predicate{Field: field, Op: OpLe, Value: value}
}

// Like matches rows where field matches a SQL LIKE pattern, e.g. "J%"
// for a prefix or "%dal" for a suffix.
func Like(field string, pattern string) *Predicate {
	return &Predicate{Field: field, Op: OpLike, Value: pattern}
}

// And joins predicates so that all of them must match.
func And(parts ...*Predicate) *Predicate {
	return &Predicate{parts: parts, join: logicAnd}
}

// Or joins predicates so that at least one of them must match.
func Or(parts ...*Predicate) *Predicate {
	return &Predicate{parts: parts, join: logicOr}
}

// SQL compiles the predicate into a parameterized clause and its bound
// arguments. Columns outside allowed and malformed nodes are rejected.
func (p *Predicate) SQL(allowed map[string]bool) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("nil predicate")
	}
	if p.join != "" {
		if len(p.parts) == 0 {
			return "", nil, fmt.Errorf("empty %s predicate", p.join)
		}
		clauses := make([]string, 0, len(p.parts))
		var args []any
		for _, part := range p.parts {
			c, a, err := part.SQL(allowed)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, c)
			args = append(args, a...)
		}
		return "(" + strings.Join(clauses, " "+string(p.join)+" ") + ")", args, nil
	}
	if !allowed[p.Field] {
		return "", nil, fmt.Errorf("unknown column %q", p.Field)
	}
	switch p.Op {
	case OpEq, OpGt, OpLt, OpGe, OpLe, OpLike:
	default:
		return "", nil, fmt.Errorf("invalid operator %q", p.Op)
	}
	return fmt.Sprintf("%s %s ?", p.Field, p.Op), []any{p.Value}, nil
}

// String renders the predicate for logs and error messages. Values are
// shown inline here only; statement building always goes through SQL.
func (p *Predicate) String() string {
	if p == nil {
		return "<nil>"
	}
	if p.join != "" {
		parts := make([]string, 0, len(p.parts))
		for _, part := range p.parts {
			parts = append(parts, part.String())
		}
		return "(" + strings.Join(parts, " "+string(p.join)+" ") + ")"
	}
	return fmt.Sprintf("%s %s %v", p.Field, p.Op, p.Value)
}
