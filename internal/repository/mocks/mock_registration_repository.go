package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fanreg/internal/model"
	"fanreg/internal/repository"
)

type MockRegistrationRepository struct {
	mock.Mock
}

func (m *MockRegistrationRepository) Create(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	args := m.Called(ctx, reg)
	if f, ok := args.Get(0).(func(context.Context, *model.Registration) *model.Registration); ok {
		return f(ctx, reg), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Registration], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Registration]), args.Error(1)
}
