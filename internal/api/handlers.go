package api

import (
	"context"

	"github.com/mnedoszytko/leitner-flashcards/internal/services"
)

// Pinger reports whether the store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	SubjectService  services.SubjectService
	DeckService     services.DeckService
	CardService     services.CardService
	ReviewService   services.ReviewService
	ExchangeService services.ExchangeService
	StatsService    services.StatsService

	DB                 Pinger
	MaxImportBytes     int64
	CORSAllowedOrigins []string
}
