package models

import "time"

// ProvenanceSchemaVersion versions the shape of ProvenanceRecord for
// after-the-fact audit tooling.
const ProvenanceSchemaVersion = "1.0"

// ProvenanceRecord is the write-once audit record appended for every
// execution. It must never be mutated once written.
type ProvenanceRecord struct {
	ExecutionID       string       `json:"execution_id"`
	WorkflowType      WorkflowType `json:"workflow_type"`
	SchemaVersion     string       `json:"schema_version"`
	RecordedAt        time.Time    `json:"recorded_at"`
	DataSources       []string     `json:"data_sources"`
	HeuristicVersions []string     `json:"heuristic_versions"`
	Reviewer          string       `json:"reviewer,omitempty"`
	ComplianceChecks  []string     `json:"compliance_checks"`
	Artifacts         []string     `json:"artifacts,omitempty"`
}
