package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fanreg/internal/oracle"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(ctx context.Context, p oracle.Prompt, maxTokens int32, temperature float32) (string, error) {
	args := m.Called(ctx, p, maxTokens, temperature)
	return args.String(0), args.Error(1)
}
