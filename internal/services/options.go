package services

import (
	stderrors "errors"
	"time"

	"github.com/mnedoszytko/leitner-flashcards/internal/errors"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository"
)

type options struct {
	now    func() time.Time
	source string
}

// Option configures a service.
type Option func(*options)

// WithClock overrides time.Now for scheduling and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithExportSource sets metadata.source on exported documents.
func WithExportSource(source string) Option {
	return func(o *options) { o.source = source }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, source: "leitner-flashcards"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// repoError translates a repository error into an AppError.
func repoError(err error, resource string, id any) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError(resource, id)
	}
	return errors.NewInternalError(err)
}
