package flow

import "slices"

// MatchesTags reports whether the flow passes the tag filters: it must
// carry at least one of include (when include is non-empty) and none of
// exclude.
func (f *Flow) MatchesTags(include, exclude []string) bool {
	if len(include) > 0 && !slices.ContainsFunc(f.Config.Tags, func(t string) bool {
		return slices.Contains(include, t)
	}) {
		return false
	}
	for _, t := range f.Config.Tags {
		if slices.Contains(exclude, t) {
			return false
		}
	}
	return true
}
