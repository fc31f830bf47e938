package sieve

// FileContext is the per-file view rules are matched against. Path is the
// project-relative slash path, Category the classifier tag for the file, and
// Content its source text.
type FileContext struct {
	Path     string
	Category string
	Content  string
}

// Predicate is one rule's compiled filter. A nil Predicate matches every
// file.
type Predicate func(FileContext) bool

// CompileFilterSpec compiles spec into a single predicate over file contexts.
// It returns nil when spec constrains nothing, so callers can skip the call
// for such rules entirely.
func CompileFilterSpec(spec *FilterSpec) Predicate {
	if spec == nil {
		return nil
	}
	var path, category, content func(string) bool
	if spec.Path != nil {
		path = compileDimension(spec.Path.Include, spec.Path.Exclude)
	}
	if spec.Category != nil {
		category = compileTags(spec.Category.Include)
	}
	if spec.Content != nil {
		content = compileDimension(spec.Content.Include, spec.Content.Exclude)
	}
	if path == nil && category == nil && content == nil {
		return nil
	}
	return func(fc FileContext) bool {
		if path != nil && !path(fc.Path) {
			return false
		}
		if category != nil && !category(fc.Category) {
			return false
		}
		if content != nil && !content(fc.Content) {
			return false
		}
		return true
	}
}

// compileDimension builds the matcher for one include/exclude pair. The
// exclude side is checked first and wins. Both sides nil compiles to nil, the
// no-constraint matcher.
func compileDimension(include, exclude []Pattern) func(string) bool {
	switch {
	case include == nil && exclude == nil:
		return nil
	case exclude == nil:
		return matchAny(include)
	case include == nil:
		ex := matchAny(exclude)
		return func(v string) bool { return !ex(v) }
	default:
		in := matchAny(include)
		ex := matchAny(exclude)
		return func(v string) bool { return !ex(v) && in(v) }
	}
}

// compileTags builds an exact-membership matcher over category tags.
func compileTags(include []string) func(string) bool {
	if include == nil {
		return nil
	}
	set := make(map[string]struct{}, len(include))
	for _, tag := range include {
		set[tag] = struct{}{}
	}
	return func(v string) bool {
		_, ok := set[v]
		return ok
	}
}
