// Package reduce implements the tag and URL result reducers: the final
// step that collapses a page parser's flat []content.Result stream into
// the two shapes downstream callers actually want, per spec.md §4.9.
package reduce

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/HOZHENWAI/hydrus/content"
)

var collapseWhitespace = regexp.MustCompile(`\s+`)

// CleanTag normalises a raw "namespace:subtag" (or bare "subtag") string:
// lowercased, whitespace collapsed and trimmed on each side of the colon.
// Mirrors the teacher corpus's habit of having one small, well-named
// normalisation helper rather than inlining it at every call site.
func CleanTag(tag string) string {
	namespace, subtag, hasNamespace := strings.Cut(tag, ":")
	if !hasNamespace {
		return cleanPart(tag)
	}
	namespace = cleanPart(namespace)
	subtag = cleanPart(subtag)
	if namespace == "" {
		return subtag
	}
	if subtag == "" {
		return ""
	}
	return namespace + ":" + subtag
}

func cleanPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return collapseWhitespace.ReplaceAllString(s, " ")
}

// ReduceTags unions every content.Mappings result's fragment with its
// descriptor's namespace into a single cleaned, deduplicated tag set,
// sorted for a deterministic result. Fragments that clean down to the
// empty string are dropped and reported in the returned error (still
// collected, never fatal to the reduction as a whole), per spec.md §4.9's
// "cleaned/deduplicated" wording.
func ReduceTags(results []content.Result) ([]string, error) {
	seen := make(map[string]struct{})
	var warnings error

	for _, r := range results {
		if r.Descriptor.Type != content.Mappings {
			continue
		}
		raw := r.Fragment
		if r.Descriptor.Namespace != "" {
			raw = r.Descriptor.Namespace + ":" + raw
		}
		cleaned := CleanTag(raw)
		if cleaned == "" {
			warnings = multierror.Append(warnings, fmt.Errorf("tag reducer: %q cleaned to empty, dropped", raw))
			continue
		}
		seen[cleaned] = struct{}{}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, warnings
}

// ReduceURLs groups every content.URLs result's fragment by its
// descriptor's priority (a nil priority counts as -1, per spec.md §4.9),
// sorts the groups by descending priority, and preserves each result's
// original relative order within its group.
func ReduceURLs(results []content.Result) [][]string {
	order := make([]int, 0)
	groups := make(map[int][]string)

	for _, r := range results {
		if r.Descriptor.Type != content.URLs {
			continue
		}
		priority := -1
		if r.Descriptor.Priority != nil {
			priority = *r.Descriptor.Priority
		}
		if _, ok := groups[priority]; !ok {
			order = append(order, priority)
		}
		groups[priority] = append(groups[priority], r.Fragment)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(order)))

	out := make([][]string, 0, len(order))
	for _, p := range order {
		out = append(out, groups[p])
	}
	return out
}
