// Package compliance checks answers against per-question length limits.
package compliance

import (
	"strings"
	"unicode/utf8"

	"github.com/grantforge/grantforge/pkg/model"
)

type Result struct {
	Count     int  `json:"count"`
	Limit     int  `json:"limit"`
	Compliant bool `json:"compliant"`
}

// Check evaluates an answer against a limit. A limit of 0 means no limit
// and is always compliant.
func Check(answer string, limit int, unit model.LengthUnit) Result {
	var count int
	switch unit {
	case model.UnitWords:
		count = len(strings.Fields(answer))
	default:
		count = utf8.RuneCountInString(answer)
	}

	return Result{
		Count:     count,
		Limit:     limit,
		Compliant: limit == 0 || count <= limit,
	}
}
