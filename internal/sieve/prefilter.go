package sieve

import "slices"

// PreFilter is the statically composed skip criterion for one rule set. It
// is conservative: a file it rejects is rejected by every rule, while a file
// it allows may still match no rule at selection time.
type PreFilter struct {
	Path     *DimensionFilter `yaml:"path,omitempty" json:"path,omitempty"`
	Category *TagFilter       `yaml:"category,omitempty" json:"category,omitempty"`
	Content  *DimensionFilter `yaml:"content,omitempty" json:"content,omitempty"`

	pathFn     func(string) bool
	categoryFn func(string) bool
	contentFn  func(string) bool
}

// AllowsPath reports whether a file at path can match any rule.
func (f *PreFilter) AllowsPath(path string) bool {
	return f.pathFn == nil || f.pathFn(path)
}

// AllowsCategory reports whether a file tagged category can match any rule.
func (f *PreFilter) AllowsCategory(category string) bool {
	return f.categoryFn == nil || f.categoryFn(category)
}

// AllowsContent reports whether a file holding content can match any rule.
func (f *PreFilter) AllowsContent(content string) bool {
	return f.contentFn == nil || f.contentFn(content)
}

// Unconstrained reports whether the pre-filter allows every file.
func (f *PreFilter) Unconstrained() bool {
	return f.Path == nil && f.Category == nil && f.Content == nil
}

// ComposePreFilter folds the filters of rules into one conservative
// pre-filter and mixes the user-level path settings into its path dimension.
//
// Include lists union across rules and exclude lists intersect, so widening
// any rule's filter can only widen the composition. A rule that leaves a
// dimension unconstrained, or constrains it with a dynamic pattern the
// composition cannot reason about, widens that dimension to match-all. A
// rule with no filter at all collapses the composition to the user path
// settings alone. User path includes replace the rule-derived include union;
// user path excludes are appended to the rule-derived exclude intersection.
func ComposePreFilter(rules []Rule, user PathSettings) *PreFilter {
	pf := &PreFilter{}
	if len(rules) == 0 || anyUnconstrained(rules) {
		pf.Path = userOnlyPath(user)
	} else {
		path := foldDimension(rules, func(fs *FilterSpec) *DimensionFilter { return fs.Path })
		content := foldDimension(rules, func(fs *FilterSpec) *DimensionFilter { return fs.Content })
		pf.Path = path.mergeUser(user)
		pf.Category = foldTags(rules)
		pf.Content = content.emit()
	}
	pf.compile()
	return pf
}

func anyUnconstrained(rules []Rule) bool {
	for _, r := range rules {
		if !r.constrained() {
			return true
		}
	}
	return false
}

// userOnlyPath builds a path dimension from user settings alone, or nil when
// the user constrains nothing.
func userOnlyPath(user PathSettings) *DimensionFilter {
	if user.Include == nil && len(user.Exclude) == 0 {
		return nil
	}
	df := &DimensionFilter{Include: user.Include}
	if len(user.Exclude) > 0 {
		df.Exclude = user.Exclude
	}
	return df
}

// dimFold accumulates one dimension across all rules of a set.
type dimFold struct {
	all     bool      // include side widened to match-all
	include []Pattern // union of static includes
	exclude []Pattern // intersection of excludes
	seeded  bool      // first exclude list folded in
}

// foldDimension walks every rule's view of one dimension. Callers guarantee
// that each rule carries a FilterSpec.
func foldDimension(rules []Rule, pick func(*FilterSpec) *DimensionFilter) dimFold {
	var f dimFold
	for _, r := range rules {
		df := pick(r.Annot.Filter)
		if df == nil || hasDynamic(df.Include) || hasDynamic(df.Exclude) {
			// This rule accepts anything here, so the composed include must
			// too, and no exclusion can survive the intersection.
			f.all = true
			f.cutExclude(nil)
			continue
		}
		if df.Include == nil {
			f.all = true
		} else if !f.all {
			for _, p := range df.Include {
				if !slices.ContainsFunc(f.include, p.Equal) {
					f.include = append(f.include, p)
				}
			}
		}
		f.cutExclude(df.Exclude)
	}
	return f
}

// cutExclude intersects the accumulated exclude list with next. An exclusion
// survives only while every folded rule lists it.
func (f *dimFold) cutExclude(next []Pattern) {
	if !f.seeded {
		f.seeded = true
		f.exclude = slices.Clone(next)
		return
	}
	if len(f.exclude) == 0 {
		return
	}
	var kept []Pattern
	for _, p := range f.exclude {
		if slices.ContainsFunc(next, p.Equal) {
			kept = append(kept, p)
		}
	}
	f.exclude = kept
}

// emit renders the fold as a dimension entry, or nil when it no longer
// constrains anything.
func (f dimFold) emit() *DimensionFilter {
	if f.all && len(f.exclude) == 0 {
		return nil
	}
	df := &DimensionFilter{Exclude: f.exclude}
	if !f.all {
		df.Include = f.include
		if df.Include == nil {
			df.Include = []Pattern{}
		}
	}
	return df
}

// mergeUser mixes user-level path settings into the folded path dimension.
func (f dimFold) mergeUser(user PathSettings) *DimensionFilter {
	include, all := f.include, f.all
	if user.Include != nil {
		include, all = user.Include, false
	}
	exclude := append(slices.Clone(f.exclude), user.Exclude...)
	if all && len(exclude) == 0 {
		return nil
	}
	df := &DimensionFilter{Exclude: exclude}
	if !all {
		df.Include = include
		if df.Include == nil {
			df.Include = []Pattern{}
		}
	}
	return df
}

// foldTags unions category tags across rules. Any rule without a category
// constraint widens the dimension away entirely.
func foldTags(rules []Rule) *TagFilter {
	var tags []string
	for _, r := range rules {
		tf := r.Annot.Filter.Category
		if tf == nil || tf.Include == nil {
			return nil
		}
		for _, t := range tf.Include {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	return &TagFilter{Include: tags}
}

func hasDynamic(patterns []Pattern) bool {
	for _, p := range patterns {
		if p.Dynamic() {
			return true
		}
	}
	return false
}

// compile materializes the matcher functions for the emitted dimensions.
func (f *PreFilter) compile() {
	if f.Path != nil {
		f.pathFn = compileDimension(f.Path.Include, f.Path.Exclude)
	}
	if f.Category != nil {
		f.categoryFn = compileTags(f.Category.Include)
	}
	if f.Content != nil {
		f.contentFn = compileDimension(f.Content.Include, f.Content.Exclude)
	}
}
