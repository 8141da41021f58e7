// Package gate evaluates finished artifacts against fixed, ordered sets
// of named checks. Checks are pure functions of the artifact: the same
// input always yields the same GateResult.
package gate

import (
	"github.com/okian/linotype/internal/domain/model"
	"github.com/okian/linotype/pkg/metrics"
)

// Gate name constants.
const (
	EditorialGate = "editorial"
	VisualGate    = "visual"
)

// Check is one named predicate in a gate. Run returns the verdict and a
// human-readable rationale; na marks checks whose precondition does not
// apply (counted as passed).
type Check struct {
	Name string
	Run  func(artifact any) (passed, na bool, rationale string)
}

// Gate is an ordered set of checks evaluated as a unit.
type Gate struct {
	name   string
	checks []Check
}

// New creates a gate with the given check order.
func New(name string, checks []Check) *Gate {
	return &Gate{name: name, checks: checks}
}

// Name returns the gate's name.
func (g *Gate) Name() string { return g.name }

// Evaluate runs every check in declared order and ANDs the non-NA
// verdicts. An all-NA check set passes. Every check's rationale is
// retained, passed or not, so a rejection is fully auditable.
func (g *Gate) Evaluate(artifact any) model.GateResult {
	result := model.GateResult{
		GateName:      g.name,
		OverallPassed: true,
	}
	for _, c := range g.checks {
		passed, na, rationale := c.Run(artifact)
		if na {
			passed = true
		}
		result.Checks = append(result.Checks, model.CheckResult{
			Name:      c.Name,
			Passed:    passed,
			NA:        na,
			Rationale: rationale,
		})
		if !na && !passed {
			result.OverallPassed = false
			metrics.RecordGateCheckFailed(g.name, c.Name)
		}
	}
	metrics.RecordGateEvaluation(g.name, result.OverallPassed)
	return result
}
