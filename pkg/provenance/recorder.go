// Package provenance builds the write-once audit record attached to every
// finished pipeline run.
package provenance

import (
	"errors"
	"fmt"
	"time"

	"github.com/paydeck/paydeck/pkg/models"
)

// ErrAlreadyRecorded is returned when a run already carries an audit record.
var ErrAlreadyRecorded = errors.New("provenance record already attached")

// Versions identifies the decision heuristics that were active during a run.
type Versions struct {
	DecisionEngine  string
	PolicyRuleset   string
	ThresholdPolicy string
}

// DefaultVersions returns the heuristic versions compiled into this build.
func DefaultVersions() Versions {
	return Versions{
		DecisionEngine:  "decision-engine/1.2.0",
		PolicyRuleset:   "policy-ruleset/2026.08",
		ThresholdPolicy: "threshold-policy/1.0.0",
	}
}

// Recorder assembles provenance records. Records are immutable once attached
// to an execution.
type Recorder struct {
	versions Versions
}

func NewRecorder(versions Versions) *Recorder {
	return &Recorder{versions: versions}
}

// Record attaches an audit record to the execution. A second call for the
// same execution returns ErrAlreadyRecorded and leaves the original intact.
func (r *Recorder) Record(execution *models.WorkflowExecution, dataSources []string, artifacts []string) error {
	if execution.Provenance != nil {
		return fmt.Errorf("execution %s: %w", execution.ID, ErrAlreadyRecorded)
	}

	record := &models.ProvenanceRecord{
		ExecutionID:   execution.ID,
		WorkflowType:  execution.WorkflowType,
		SchemaVersion: models.ProvenanceSchemaVersion,
		RecordedAt:    time.Now().UTC(),
		DataSources:   append([]string{}, dataSources...),
		HeuristicVersions: []string{
			r.versions.DecisionEngine,
			r.versions.PolicyRuleset,
			r.versions.ThresholdPolicy,
		},
		ComplianceChecks: complianceChecks(execution),
		Artifacts:        append([]string{}, artifacts...),
	}

	if execution.ReviewRequest != nil {
		record.Reviewer = execution.ReviewRequest.Reviewer
	}

	execution.Provenance = record

	return nil
}

// complianceChecks snapshots the threshold checks evaluated by the decision
// stage as "name=passed|failed" entries.
func complianceChecks(execution *models.WorkflowExecution) []string {
	checks := make([]string, 0)

	if execution.Decision == nil {
		return checks
	}

	for _, check := range execution.Decision.ThresholdChecks {
		outcome := "failed"
		if check.Passed {
			outcome = "passed"
		}

		checks = append(checks, check.Name+"="+outcome)
	}

	return checks
}
