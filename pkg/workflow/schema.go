package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/paydeck/paydeck/pkg/models"
)

// ErrInvalidInput marks intake payloads that fail structural validation.
// Callers map it to a client error rather than a pipeline failure.
var ErrInvalidInput = errors.New("invalid workflow input")

const payrollApprovalSchema = `{
	"type": "object",
	"properties": {
		"employees": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id":             {"type": "string", "minLength": 1},
					"wallet_address": {"type": "string", "minLength": 1},
					"net_pay_cents":  {"type": "integer"}
				},
				"required": ["id", "wallet_address", "net_pay_cents"]
			}
		},
		"total_amount_cents": {"type": "integer", "minimum": 0}
	},
	"required": ["employees"]
}`

const genericCheckSchema = `{
	"type": "object",
	"properties": {
		"subject": {"type": "string", "minLength": 1}
	}
}`

// intakeValidator validates input payloads against the per-workflow-type
// JSON schema during the intake stage.
type intakeValidator struct {
	schemas map[models.WorkflowType]*gojsonschema.Schema
}

func newIntakeValidator() (*intakeValidator, error) {
	sources := map[models.WorkflowType]string{
		models.WorkflowTypePayrollApproval: payrollApprovalSchema,
		models.WorkflowTypeOnboardingCheck: genericCheckSchema,
		models.WorkflowTypeComplianceCheck: genericCheckSchema,
	}

	schemas := make(map[models.WorkflowType]*gojsonschema.Schema, len(sources))

	for workflowType, source := range sources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s input schema: %w", workflowType, err)
		}

		schemas[workflowType] = schema
	}

	return &intakeValidator{schemas: schemas}, nil
}

// Validate checks the input payload against the workflow type's schema.
func (v *intakeValidator) Validate(workflowType models.WorkflowType, data map[string]any) error {
	schema, ok := v.schemas[workflowType]
	if !ok {
		return fmt.Errorf("%w: unknown workflow type %q", ErrInvalidInput, workflowType)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		details = append(details, schemaErr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(details, "; "))
}
