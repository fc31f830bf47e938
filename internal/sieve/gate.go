package sieve

// BuildInfo identifies the build a run belongs to. The selector never
// inspects it; phase gates do.
type BuildInfo struct {
	Phase string
	Mode  string
}

// Environment is one named build environment plus free-form metadata for
// gate functions to inspect.
type Environment struct {
	Name string
	Meta map[string]string
}

// PhaseGate reports whether a rule participates in the given build. A nil
// gate always participates.
type PhaseGate func(BuildInfo) bool

// EnvGate reports whether a rule participates in the given environment. A
// nil gate always participates.
type EnvGate func(Environment) bool

// ApplyPhaseGate returns the rules participating in the given build, in
// their original order. The input slice is never modified.
func ApplyPhaseGate(rules []Rule, build BuildInfo) []Rule {
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Annot != nil && r.Annot.Phase != nil && !r.Annot.Phase(build) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// ApplyEnvGate returns the rules participating in the given environment, in
// their original order. The input slice is never modified.
func ApplyEnvGate(rules []Rule, env Environment) []Rule {
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Annot != nil && r.Annot.Env != nil && !r.Annot.Env(env) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
