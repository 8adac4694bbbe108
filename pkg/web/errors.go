package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/paydeck/paydeck/pkg/persistence"
	"github.com/paydeck/paydeck/pkg/review"
	"github.com/paydeck/paydeck/pkg/settlement"
	"github.com/paydeck/paydeck/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		return badRequest(c, err.Error())

	case review.IsInvalidSubmission(err):
		return badRequest(c, err.Error())

	case review.IsNotFound(err):
		return notFound(c, "review request not found")

	case review.IsConflict(err):
		return conflict(c, "review request already decided")

	case settlement.IsValidationError(err):
		return badRequest(c, err.Error())

	case settlement.IsInsufficientFunds(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("insufficient_funds").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case settlement.IsSubmissionError(err):
		problem := problems.NewStatusProblem(502).
			WithInstance(c.Path()).
			WithType("settlement_failed").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadGateway).JSON(problem)

	case persistence.IsExecutionNotFound(err):
		return notFound(c, "execution not found")

	case persistence.IsReviewRequestNotFound(err):
		return notFound(c, "review request not found")

	default:
		return internalError(c, err)
	}
}
