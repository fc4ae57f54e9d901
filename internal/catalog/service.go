// Package catalog implements the media catalog repository: movie and
// category collections plus per-series season/episode trees, all persisted
// through the document store.
package catalog

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/streavmin/streavmin/internal/audit"
	"github.com/streavmin/streavmin/internal/docstore"
)

const (
	moviesFile     = "catalog/movies.json"
	categoriesFile = "catalog/categories.json"
	seriesDir      = "catalog/series"
)

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrSeriesNotFound   = errors.New("series not found")
	ErrSeasonNotFound   = errors.New("season not found")
	ErrEpisodeNotFound  = errors.New("episode not found")
)

// Service provides catalog operations. Every persisted change goes through
// the document store; an audit entry is appended for each mutation.
type Service struct {
	store  *docstore.Store
	audit  *audit.Logger
	logger zerolog.Logger
}

// NewService creates a new catalog service.
func NewService(store *docstore.Store, auditLog *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		audit:  auditLog,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}
