// Package classify derives structural tags from submitted query text.
//
// This is a keyword heuristic, not a SQL parser: false positives and
// negatives are accepted. The functions are pure and total; malformed or
// empty input simply yields no tags.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/proctor/internal/domain/event"
)

// DefaultExcerptLen caps the excerpt carried in derived event metadata so a
// single large submission cannot inflate metadata size.
const DefaultExcerptLen = 120

// aggregate function openers, upper-cased for the normalized scan.
var aggregateMarkers = []string{"COUNT(", "SUM(", "AVG(", "MIN(", "MAX(", "COUNT (", "SUM (", "AVG (", "MIN (", "MAX ("}

// Tags holds the structural properties detected in one piece of text.
type Tags struct {
	HasJoin      bool
	HasAggregate bool
	HasSubquery  bool
	HasGroupBy   bool
	HasFilter    bool
	HasWindow    bool
}

// Any reports whether at least one tag is set.
func (t Tags) Any() bool {
	return t.HasJoin || t.HasAggregate || t.HasSubquery || t.HasGroupBy || t.HasFilter || t.HasWindow
}

// Derived is one synthetic query-operation event produced from a positive tag.
type Derived struct {
	Type     event.Type
	Metadata event.Metadata
}

// Classify inspects text and returns its structural tags. Identical input
// always yields identical tags regardless of call order or prior state.
func Classify(text string) Tags {
	norm := strings.ToUpper(strings.Join(strings.Fields(text), " "))
	if norm == "" {
		return Tags{}
	}

	var tags Tags
	tags.HasJoin = strings.Contains(norm, " JOIN ")
	for _, m := range aggregateMarkers {
		if strings.Contains(norm, m) {
			tags.HasAggregate = true
			break
		}
	}
	tags.HasGroupBy = strings.Contains(norm, "GROUP BY")
	tags.HasFilter = strings.Contains(norm, " WHERE ") || strings.HasPrefix(norm, "WHERE ") || strings.Contains(norm, " HAVING ")
	tags.HasWindow = strings.Contains(norm, " OVER (") || strings.Contains(norm, " OVER(")

	// A nested (SELECT, or more than one query-start keyword at any depth,
	// counts as subquery evidence.
	tags.HasSubquery = strings.Contains(norm, "(SELECT") || strings.Contains(norm, "( SELECT") ||
		strings.Count(norm, "SELECT ") > 1

	return tags
}

// Emit classifies text and returns one derived event per positive tag, in a
// fixed order, each carrying a bounded excerpt of the input. A text with no
// detectable patterns yields an empty slice; that is not an error.
func Emit(text string, maxExcerpt int) []Derived {
	tags := Classify(text)
	if !tags.Any() {
		return nil
	}
	if maxExcerpt <= 0 {
		maxExcerpt = DefaultExcerptLen
	}
	excerpt := Excerpt(text, maxExcerpt)

	var out []Derived
	add := func(ok bool, t event.Type) {
		if ok {
			out = append(out, Derived{Type: t, Metadata: event.Metadata{"excerpt": excerpt}})
		}
	}
	add(tags.HasJoin, event.QueryJoinUsed)
	add(tags.HasAggregate, event.QueryAggregateUsed)
	add(tags.HasSubquery, event.QuerySubqueryUsed)
	add(tags.HasGroupBy, event.QueryGroupByUsed)
	add(tags.HasFilter, event.QueryFilterUsed)
	add(tags.HasWindow, event.QueryWindowUsed)
	return out
}

// Excerpt returns at most max bytes of text, collapsing interior whitespace.
// The cut backs off to a rune boundary so the result is always valid UTF-8.
func Excerpt(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) <= max {
		return flat
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(flat[cut]) {
		cut--
	}
	return flat[:cut]
}
