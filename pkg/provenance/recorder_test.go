package provenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/models"
)

func finishedExecution() *models.WorkflowExecution {
	return &models.WorkflowExecution{
		ID:           "exec-1",
		WorkflowType: models.WorkflowTypePayrollApproval,
		Status:       models.ExecutionStatusCompleted,
		StartTime:    time.Now().UTC(),
		Decision: &models.DecisionLogic{
			Decision: models.DecisionAutoApprove,
			ThresholdChecks: []models.ThresholdCheck{
				{Name: "approval-amount", Value: 150_000, Threshold: 1_000_000, Passed: true},
			},
		},
	}
}

func TestRecordAttachesAuditRecord(t *testing.T) {
	recorder := NewRecorder(DefaultVersions())
	execution := finishedExecution()

	err := recorder.Record(execution, []string{"workflow-input", "settlement-network"}, []string{"tx:0xabc"})
	require.NoError(t, err)

	record := execution.Provenance
	require.NotNil(t, record)

	assert.Equal(t, "exec-1", record.ExecutionID)
	assert.Equal(t, models.WorkflowTypePayrollApproval, record.WorkflowType)
	assert.Equal(t, models.ProvenanceSchemaVersion, record.SchemaVersion)
	assert.False(t, record.RecordedAt.IsZero())
	assert.Equal(t, []string{"workflow-input", "settlement-network"}, record.DataSources)
	assert.Equal(t, []string{"tx:0xabc"}, record.Artifacts)
	assert.Equal(t, []string{
		"decision-engine/1.2.0",
		"policy-ruleset/2026.08",
		"threshold-policy/1.0.0",
	}, record.HeuristicVersions)
	assert.Equal(t, []string{"approval-amount=passed"}, record.ComplianceChecks)
	assert.Empty(t, record.Reviewer)
}

func TestRecordIsWriteOnce(t *testing.T) {
	recorder := NewRecorder(DefaultVersions())
	execution := finishedExecution()

	require.NoError(t, recorder.Record(execution, []string{"workflow-input"}, nil))

	original := execution.Provenance

	err := recorder.Record(execution, []string{"something-else"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRecorded)

	// The first record stands untouched.
	assert.Same(t, original, execution.Provenance)
	assert.Equal(t, []string{"workflow-input"}, execution.Provenance.DataSources)
}

func TestRecordCopiesReviewer(t *testing.T) {
	recorder := NewRecorder(DefaultVersions())
	execution := finishedExecution()
	execution.ReviewRequest = &models.ReviewRequest{
		ID:       "review-1",
		Reviewer: "ops@paydeck.io",
	}

	require.NoError(t, recorder.Record(execution, nil, nil))
	assert.Equal(t, "ops@paydeck.io", execution.Provenance.Reviewer)
}

func TestRecordFailedCheck(t *testing.T) {
	recorder := NewRecorder(DefaultVersions())
	execution := finishedExecution()
	execution.Decision.ThresholdChecks = []models.ThresholdCheck{
		{Name: "approval-amount", Value: 2_000_000, Threshold: 1_000_000, Passed: false},
	}

	require.NoError(t, recorder.Record(execution, nil, nil))
	assert.Equal(t, []string{"approval-amount=failed"}, execution.Provenance.ComplianceChecks)
}

func TestRecordWithoutDecision(t *testing.T) {
	recorder := NewRecorder(DefaultVersions())
	execution := finishedExecution()
	execution.Decision = nil

	require.NoError(t, recorder.Record(execution, nil, nil))
	assert.Empty(t, execution.Provenance.ComplianceChecks)
}
