// Package variantfix rewrites C++ sources so that variant lookups are passed
// through a string conversion call before use.
//
// The rewrite is a heuristic text transform driven by regular expressions,
// not a parser-based program transformation. It matches the common shapes
// found in the module sources (map.at("key"), guarded ternaries and stream
// insertions of bracket lookups) and nothing more.
package variantfix

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultWrapper is the conversion function inserted around variant lookups.
const DefaultWrapper = "variantToString"

// Rule names, in application order.
const (
	RuleWrapAt          = "wrap-at"
	RuleCollapseGuarded = "collapse-guarded"
	RuleWrapStream      = "wrap-stream"
)

// ErrInvalidWrapper is returned when the wrapper is not a (qualified) identifier.
var ErrInvalidWrapper = errors.New("invalid wrapper name")

var wrapperName = regexp.MustCompile(`^[A-Za-z_]\w*(::[A-Za-z_]\w*)*$`)

const (
	atLookup    = `\w+\.at\("[\w_]+"\)`
	countGuard  = `\w+\.count\("[\w_]+"\) \? `
	streamIndex = `\w+\[[\w"]+\]`
)

// Rule is a single pattern rewrite applied to the whole file text.
type Rule struct {
	Pattern     *regexp.Regexp
	Name        string
	Replacement string
}

// Apply rewrites every non-overlapping match in text and returns the new
// text with the number of matches replaced.
func (r Rule) Apply(text string) (string, int) {
	matches := len(r.Pattern.FindAllStringIndex(text, -1))
	if matches == 0 {
		return text, 0
	}

	return r.Pattern.ReplaceAllString(text, r.Replacement), matches
}

// Rules builds the ordered rule set for wrapper.
//
// wrap-at wraps every key lookup via .at(). collapse-guarded undoes the
// double wrap wrap-at produces on a lookup that was already wrapped inside a
// .count() guarded ternary. wrap-stream wraps bracket lookups written between
// two stream insertion operators.
func Rules(wrapper string) ([]Rule, error) {
	if !wrapperName.MatchString(wrapper) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWrapper, wrapper)
	}

	quoted := regexp.QuoteMeta(wrapper)

	return []Rule{
		{
			Name:        RuleWrapAt,
			Pattern:     regexp.MustCompile(`(` + atLookup + `)`),
			Replacement: wrapper + `(${1})`,
		},
		{
			Name: RuleCollapseGuarded,
			Pattern: regexp.MustCompile(
				`(` + countGuard + `)` + quoted + `\(` + quoted + `\((` + atLookup + `)\)\)`,
			),
			Replacement: `${1}` + wrapper + `(${2})`,
		},
		{
			Name:        RuleWrapStream,
			Pattern:     regexp.MustCompile(`<< (` + streamIndex + `) <<`),
			Replacement: `<< ` + wrapper + `(${1}) <<`,
		},
	}, nil
}

// RuleHit counts the matches a rule rewrote in one file.
type RuleHit struct {
	Rule  string `json:"rule"  yaml:"rule"`
	Count int    `json:"count" yaml:"count"`
}

// Rewrite applies rules in order and reports the per-rule match counts.
// Every rule is listed in the hits, including those that matched nothing.
func Rewrite(text string, rules []Rule) (string, []RuleHit) {
	hits := make([]RuleHit, 0, len(rules))

	for _, rule := range rules {
		var count int

		text, count = rule.Apply(text)
		hits = append(hits, RuleHit{Rule: rule.Name, Count: count})
	}

	return text, hits
}

// TotalHits sums the counts of hits.
func TotalHits(hits []RuleHit) int {
	total := 0
	for _, hit := range hits {
		total += hit.Count
	}

	return total
}
