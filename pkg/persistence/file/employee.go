package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// EmployeeRepository handles employee record file operations.
type EmployeeRepository struct {
	root string
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(root string) *EmployeeRepository {
	return &EmployeeRepository{root: root}
}

// Save writes an employee record to the file system.
func (er *EmployeeRepository) Save(_ context.Context, employee *models.Employee) error {
	err := os.MkdirAll(er.root+"/employees", 0750)
	if err != nil {
		return fmt.Errorf("failed to create employees directory: %w", err)
	}

	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}

	employee.UpdatedAt = now

	data, err := json.MarshalIndent(employee, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal employee %s: %w", employee.ID, err)
	}

	filePath := path.Join(er.root+"/employees", employee.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// GetByID retrieves an employee by its ID from the file system.
func (er *EmployeeRepository) GetByID(_ context.Context, id string) (*models.Employee, error) {
	filePath := filepath.Clean(path.Join(er.root, "employees", id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.EmployeeError{Op: "GetByID", EmployeeID: id, Err: persistence.ErrEmployeeNotFound}
		}

		return nil, fmt.Errorf("failed to fetch employee %s: %w", id, err)
	}

	var employee models.Employee

	err = json.Unmarshal(body, &employee)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal employee %s: %w", id, err)
	}

	return &employee, nil
}

// ListByPaymentStatus returns all employees currently in the given payment state.
func (er *EmployeeRepository) ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Employee, error) {
	root := os.DirFS(er.root + "/employees")

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list employee files: %w", err)
	}

	employees := make([]*models.Employee, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		employeeID := file[:len(file)-5]

		employee, err := er.GetByID(ctx, employeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load employee %s: %w", employeeID, err)
		}

		if employee.PaymentStatus != status {
			continue
		}

		employees = append(employees, employee)
	}

	sort.Slice(employees, func(i, j int) bool {
		return employees[i].ID < employees[j].ID
	})

	return employees, nil
}

// UpdatePaymentStatus transitions one employee's payment state.
func (er *EmployeeRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	employee, err := er.GetByID(ctx, id)
	if err != nil {
		return err
	}

	employee.PaymentStatus = status

	return er.Save(ctx, employee)
}
