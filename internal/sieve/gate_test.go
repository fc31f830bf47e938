package sieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func phaseRule(payload string, phases ...string) Rule {
	return Annotated(payload, Annotation{
		Phase: func(b BuildInfo) bool {
			for _, p := range phases {
				if p == b.Phase {
					return true
				}
			}
			return false
		},
	})
}

func envRule(payload string, names ...string) Rule {
	return Annotated(payload, Annotation{
		Env: func(e Environment) bool {
			for _, n := range names {
				if n == e.Name {
					return true
				}
			}
			return false
		},
	})
}

func TestApplyPhaseGate(t *testing.T) {
	rules := []Rule{
		phaseRule("build-only", "build"),
		Plain("ungated"),
		phaseRule("watch-only", "watch"),
		phaseRule("both", "build", "watch"),
	}

	got := ApplyPhaseGate(rules, BuildInfo{Phase: "build"})
	assert.Equal(t, []string{"build-only", "ungated", "both"}, payloads(got))

	got = ApplyPhaseGate(rules, BuildInfo{Phase: "watch"})
	assert.Equal(t, []string{"ungated", "watch-only", "both"}, payloads(got))

	// Input list untouched.
	assert.Len(t, rules, 4)
}

func TestApplyPhaseGate_GateSeesBuildMode(t *testing.T) {
	rules := []Rule{
		Annotated("prod-only", Annotation{
			Phase: func(b BuildInfo) bool { return b.Mode == "production" },
		}),
	}

	assert.Len(t, ApplyPhaseGate(rules, BuildInfo{Phase: "build", Mode: "production"}), 1)
	assert.Empty(t, ApplyPhaseGate(rules, BuildInfo{Phase: "build", Mode: "development"}))
}

func TestApplyEnvGate(t *testing.T) {
	rules := []Rule{
		envRule("client-only", "client"),
		envRule("server-only", "server"),
		Plain("ungated"),
	}

	got := ApplyEnvGate(rules, Environment{Name: "client"})
	assert.Equal(t, []string{"client-only", "ungated"}, payloads(got))

	got = ApplyEnvGate(rules, Environment{Name: "edge"})
	assert.Equal(t, []string{"ungated"}, payloads(got))
}

func TestApplyEnvGate_GateSeesMetadata(t *testing.T) {
	rules := []Rule{
		Annotated("browser-only", Annotation{
			Env: func(e Environment) bool { return e.Meta["platform"] == "browser" },
		}),
	}

	browser := Environment{Name: "client", Meta: map[string]string{"platform": "browser"}}
	node := Environment{Name: "ssr", Meta: map[string]string{"platform": "node"}}

	assert.Len(t, ApplyEnvGate(rules, browser), 1)
	assert.Empty(t, ApplyEnvGate(rules, node))
}
