package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fanreg/internal/model"
	"fanreg/internal/service"
)

type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Register(ctx context.Context, in model.RegistrationInput) (*model.ValidationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ValidationResult), args.Error(1)
}

func (m *MockRegistrationService) Get(ctx context.Context, id string) (*model.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationService) DocumentURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockRegistrationService) List(ctx context.Context, limit, offset int) (*service.RegistrationListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RegistrationListResult), args.Error(1)
}
