package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mnedoszytko/leitner-flashcards/internal/exchange"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
)

// MockExchangeRepository is a mock implementation of repository.ExchangeRepository
type MockExchangeRepository struct {
	mock.Mock
}

func (m *MockExchangeRepository) Import(ctx context.Context, doc *exchange.Document, opts models.ImportOptions, now time.Time) (*models.ImportSummary, error) {
	args := m.Called(ctx, doc, opts, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSummary), args.Error(1)
}

func (m *MockExchangeRepository) Export(ctx context.Context, includeStats bool) (*models.FullBackup, error) {
	args := m.Called(ctx, includeStats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FullBackup), args.Error(1)
}

func (m *MockExchangeRepository) ExportSubject(ctx context.Context, subjectID string) (*models.SingleSubjectExport, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SingleSubjectExport), args.Error(1)
}
