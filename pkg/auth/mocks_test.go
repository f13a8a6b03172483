package auth

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jobhunt/identity/pkg/email"
)

// MockEmailSender is a testify mock for the Notifier collaborator.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
