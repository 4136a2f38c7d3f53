// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"fanreg/internal/model"
)

// RegistrationRepository defines data access for fan registrations using SQL
// queries only. No business logic lives here.
type RegistrationRepository interface {
	// Create inserts a new registration record with its verdicts and
	// returns the stored row (may include values set by the DB).
	Create(ctx context.Context, reg *model.Registration) (*model.Registration, error)

	// FindByID returns a registration by its ID.
	FindByID(ctx context.Context, id string) (*model.Registration, error)

	// List returns a paginated list of registrations and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Registration], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
