// Package file provides file-based persistence implementation for workflow
// executions and employees. Intended for development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/paydeck/paydeck/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root          string
	executionRepo *ExecutionRepository
	employeeRepo  *EmployeeRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		executionRepo: NewExecutionRepository(cleanRoot),
		employeeRepo:  NewEmployeeRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// ExecutionRepository returns the execution repository implementation for file persistence.
func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

// EmployeeRepository returns the employee repository implementation for file persistence.
func (fp *Persistence) EmployeeRepository() persistence.EmployeeRepository {
	return fp.employeeRepo
}
