package tags

import (
	"context"
	"regexp"
)

// Non-transferrable tag patterns: format-specific encode info and
// replaygain values do not carry across formats. Matched
// case-insensitively against tag keys.
var defaultBlacklist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)encoded`),
	regexp.MustCompile(`(?i)replaygain`),
	regexp.MustCompile(`(?i)^encoder$`),
	regexp.MustCompile(`(?i)^major_brand$`),
	regexp.MustCompile(`(?i)^minor_version$`),
	regexp.MustCompile(`(?i)^compatible_brands$`),
	regexp.MustCompile(`(?i)^handler_name$`),
}

// DefaultBlacklist returns the built-in non-transferrable tag patterns
func DefaultBlacklist() []*regexp.Regexp {
	return append([]*regexp.Regexp(nil), defaultBlacklist...)
}

// Filtered decorates an Editor, hiding blacklisted keys from both
// read and write
type Filtered struct {
	inner     Editor
	blacklist []*regexp.Regexp
}

// NewFiltered wraps inner with blacklist filtering. A nil blacklist
// uses the defaults.
func NewFiltered(inner Editor, blacklist []*regexp.Regexp) *Filtered {
	if blacklist == nil {
		blacklist = defaultBlacklist
	}
	return &Filtered{inner: inner, blacklist: blacklist}
}

// Blacklisted reports whether key matches any blacklist pattern
func (f *Filtered) Blacklisted(key string) bool {
	for _, re := range f.blacklist {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// Read returns the inner tags minus blacklisted keys
func (f *Filtered) Read(ctx context.Context, path string) (map[string]string, error) {
	all, err := f.inner.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(all))
	for k, v := range all {
		if !f.Blacklisted(k) {
			result[k] = v
		}
	}
	return result, nil
}

// Rewrite forwards to the inner editor with blacklisted keys dropped
// from both the set and delete lists
func (f *Filtered) Rewrite(ctx context.Context, path string, set map[string]string, del []string) error {
	filteredSet := make(map[string]string, len(set))
	for k, v := range set {
		if !f.Blacklisted(k) {
			filteredSet[k] = v
		}
	}
	var filteredDel []string
	for _, k := range del {
		if !f.Blacklisted(k) {
			filteredDel = append(filteredDel, k)
		}
	}
	return f.inner.Rewrite(ctx, path, filteredSet, filteredDel)
}
