package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/exchange"
	"github.com/mnedoszytko/leitner-flashcards/internal/flashcard"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/models"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

// ExchangeService imports and exports exchange documents.
type ExchangeService interface {
	// ImportDocument decodes raw and writes it in one transaction. The
	// result is always non-nil and mirrors the returned error.
	ImportDocument(ctx context.Context, raw []byte, opts models.ImportOptions) (*models.ImportResult, error)
	// RestoreBackup is ImportDocument restricted to full backups, always
	// clearing existing data.
	RestoreBackup(ctx context.Context, raw []byte) (*models.ImportResult, error)
	// PreviewImport reports what ImportDocument would write.
	PreviewImport(ctx context.Context, raw []byte, opts models.ImportOptions) (*models.ImportSummary, error)
	ExportFullBackup(ctx context.Context, includeStats bool) (*models.FullBackup, error)
	ExportSubject(ctx context.Context, id string) (*models.SingleSubjectExport, error)
}

type exchangeService struct {
	repo repository.ExchangeRepository
	opts options
}

// NewExchangeService creates a new ExchangeService
func NewExchangeService(repo repository.ExchangeRepository, opts ...Option) ExchangeService {
	return &exchangeService{repo: repo, opts: buildOptions(opts)}
}

func (s *exchangeService) ImportDocument(ctx context.Context, raw []byte, opts models.ImportOptions) (*models.ImportResult, error) {
	doc, err := exchange.Decode(raw)
	if err != nil {
		logger.FromContext(ctx).Warn("rejected import document: %v", err)
		return failed(err), err
	}
	return s.write(ctx, doc, opts)
}

func (s *exchangeService) RestoreBackup(ctx context.Context, raw []byte) (*models.ImportResult, error) {
	doc, err := exchange.Decode(raw)
	if err != nil {
		logger.FromContext(ctx).Warn("rejected restore document: %v", err)
		return failed(err), err
	}
	if doc.Kind != exchange.KindFullBackup {
		err := errors.NewStructuralMismatchError(string(exchange.KindFullBackup), string(doc.Kind))
		return failed(err), err
	}
	return s.write(ctx, doc, models.ImportOptions{ClearExisting: true})
}

func (s *exchangeService) PreviewImport(ctx context.Context, raw []byte, opts models.ImportOptions) (*models.ImportSummary, error) {
	doc, err := exchange.Decode(raw)
	if err != nil {
		return nil, err
	}
	summary := exchange.Summarize(doc, opts)
	return &summary, nil
}

func (s *exchangeService) write(ctx context.Context, doc *exchange.Document, opts models.ImportOptions) (*models.ImportResult, error) {
	log := logger.FromContext(ctx)
	now := s.opts.now()

	if len(doc.Ignored) > 0 {
		log.Warn("import of kind %s ignores keys: %v", doc.Kind, doc.Ignored)
	}
	exchange.ResetProgress(doc, now)

	summary, err := s.repo.Import(ctx, doc, opts, now)
	if err != nil {
		log.Error("import failed: %v", err)
		appErr := errors.NewStorageTransactionError("import", err)
		result := failed(appErr)
		result.Kind = string(doc.Kind)
		return result, appErr
	}

	msg := fmt.Sprintf("Imported %d subjects, %d decks and %d cards", summary.Subjects, summary.Decks, summary.Cards)
	if summary.RenamedSubject != "" {
		msg += fmt.Sprintf(" as %q", summary.RenamedSubject)
	}
	log.Info("%s (kind=%s)", msg, doc.Kind)
	return &models.ImportResult{Success: true, Message: msg, Kind: string(doc.Kind), Stats: summary}, nil
}

func failed(err error) *models.ImportResult {
	msg := err.Error()
	if appErr, ok := errors.As(err); ok {
		msg = appErr.Message
	}
	return &models.ImportResult{Success: false, Error: msg}
}

func (s *exchangeService) ExportFullBackup(ctx context.Context, includeStats bool) (*models.FullBackup, error) {
	backup, err := s.repo.Export(ctx, includeStats)
	if err != nil {
		logger.FromContext(ctx).Error("export failed: %v", err)
		return nil, errors.NewStorageTransactionError("export", err)
	}
	backup.Metadata.Created = flashcard.Timestamp(s.opts.now())
	backup.Metadata.Source = s.opts.source
	return backup, nil
}

func (s *exchangeService) ExportSubject(ctx context.Context, id string) (*models.SingleSubjectExport, error) {
	out, err := s.repo.ExportSubject(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("subject", id)
		}
		logger.FromContext(ctx).Error("subject export failed: %v", err)
		return nil, errors.NewStorageTransactionError("export subject", err)
	}
	out.Metadata.Created = flashcard.Timestamp(s.opts.now())
	out.Metadata.Source = s.opts.source
	return out, nil
}
