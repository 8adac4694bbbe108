package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// EmployeeRepository handles employee database operations.
type EmployeeRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *sql.DB, logger *slog.Logger) *EmployeeRepository {
	return &EmployeeRepository{db: db, logger: logger}
}

// Save upserts an employee row.
func (r *EmployeeRepository) Save(ctx context.Context, employee *models.Employee) error {
	now := time.Now().UTC()

	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}

	employee.UpdatedAt = now

	query := `
		INSERT INTO employees (id, name, email, wallet_address, gross_pay_cents, net_pay_cents, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			wallet_address = EXCLUDED.wallet_address,
			gross_pay_cents = EXCLUDED.gross_pay_cents,
			net_pay_cents = EXCLUDED.net_pay_cents,
			payment_status = EXCLUDED.payment_status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.WalletAddress,
		employee.GrossPayCents,
		employee.NetPayCents,
		employee.PaymentStatus,
		employee.CreatedAt,
		employee.UpdatedAt,
	)
	if err != nil {
		return &persistence.EmployeeError{Op: "Save", EmployeeID: employee.ID, Err: err}
	}

	return nil
}

// GetByID returns an employee by its ID.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	query := `
		SELECT id, name, email, wallet_address, gross_pay_cents, net_pay_cents, payment_status, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var employee models.Employee

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.WalletAddress,
		&employee.GrossPayCents,
		&employee.NetPayCents,
		&employee.PaymentStatus,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.EmployeeError{Op: "GetByID", EmployeeID: id, Err: persistence.ErrEmployeeNotFound}
		}

		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}

	return &employee, nil
}

// ListByPaymentStatus returns all employees currently in the given payment state.
func (r *EmployeeRepository) ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Employee, error) {
	query := `
		SELECT id, name, email, wallet_address, gross_pay_cents, net_pay_cents, payment_status, created_at, updated_at
		FROM employees
		WHERE payment_status = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}

	defer func(ctx context.Context, r *EmployeeRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	employees := make([]*models.Employee, 0)

	for rows.Next() {
		var employee models.Employee

		err := rows.Scan(
			&employee.ID,
			&employee.Name,
			&employee.Email,
			&employee.WalletAddress,
			&employee.GrossPayCents,
			&employee.NetPayCents,
			&employee.PaymentStatus,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}

		employees = append(employees, &employee)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}

// UpdatePaymentStatus transitions one employee's payment state.
func (r *EmployeeRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	query := `UPDATE employees SET payment_status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return &persistence.EmployeeError{Op: "UpdatePaymentStatus", EmployeeID: id, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return &persistence.EmployeeError{Op: "UpdatePaymentStatus", EmployeeID: id, Err: persistence.ErrEmployeeNotFound}
	}

	return nil
}
