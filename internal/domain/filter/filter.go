// Package filter holds structured metadata filter expressions translated by
// the db layer into FT.SEARCH pre-filter query strings.
package filter

import "fmt"

// Expression is a conjunction of conditions. All conditions must hold.
type Expression struct {
	conds []Condition
}

// And builds an Expression from the given conditions.
func And(conds ...Condition) Expression {
	return Expression{conds: conds}
}

// Conditions returns the conjunction members.
func (e Expression) Conditions() []Condition { return e.conds }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conds) == 0 }

// Condition is a single filter clause: either a tag match or a numeric range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// Match creates an exact tag match condition.
func Match(key, value string) Condition {
	return Condition{key: key, match: value}
}

// InRange creates a numeric range condition.
func InRange(key string, r Range) Condition {
	return Condition{key: key, rangeExpr: &r}
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// MatchValue returns the exact match value.
func (c Condition) MatchValue() string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a numeric range with optional gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// GTE returns a range with an inclusive lower bound.
func GTE(v float64) Range { return Range{gte: &v} }

// GT returns a range with an exclusive lower bound.
func GT(v float64) Range { return Range{gt: &v} }

// LT returns a range with an exclusive upper bound.
func LT(v float64) Range { return Range{lt: &v} }

// WithLT adds an exclusive upper bound to an existing range.
func (r Range) WithLT(v float64) Range {
	r.lt = &v
	return r
}

// Bounds returns the four optional boundaries (gt, gte, lt, lte).
func (r Range) Bounds() (gt, gte, lt, lte *float64) {
	return r.gt, r.gte, r.lt, r.lte
}

// Validate checks that the range is well-formed.
func (r Range) Validate() error {
	if r.gt == nil && r.gte == nil && r.lt == nil && r.lte == nil {
		return fmt.Errorf("at least one range boundary is required")
	}
	if r.gt != nil && r.gte != nil {
		return fmt.Errorf("cannot specify both gt and gte")
	}
	if r.lt != nil && r.lte != nil {
		return fmt.Errorf("cannot specify both lt and lte")
	}
	return nil
}
