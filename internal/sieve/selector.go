package sieve

// Select returns the rules whose compiled predicates accept fc, preserving
// configuration order. preds runs parallel to rules; a nil entry means the
// rule has no filter and always matches.
func Select(fc FileContext, rules []Rule, preds []Predicate) []Rule {
	var out []Rule
	for i, r := range rules {
		if i < len(preds) {
			if p := preds[i]; p != nil && !p(fc) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
