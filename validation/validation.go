// Package validation collects field violations as code strings. The codes are
// translated by the i18n package.
package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v.Add(field, "required")
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

// Greater requires val > floor, e.g. a new odometer reading past the old one.
func Greater(field string, val, floor decimal.Decimal, v Violations) {
	if !val.GreaterThan(floor) {
		v.Add(field, "must_be_greater")
	}
}

// UniqueIDs rejects ids that appear more than once.
func UniqueIDs(field string, ids []uint, v Violations) {
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			v.Add(field, "duplicate")
			return
		}
		seen[id] = true
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "invalid_value")
}
