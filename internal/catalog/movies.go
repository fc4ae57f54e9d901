package catalog

import (
	"context"
	"fmt"

	"github.com/streavmin/streavmin/internal/docstore"
)

// ListMovies returns the full movie collection.
func (s *Service) ListMovies(ctx context.Context) ([]Movie, error) {
	movies, err := docstore.Read(ctx, s.store, moviesFile, &[]Movie{})
	if err != nil {
		return nil, fmt.Errorf("failed to load movies: %w", err)
	}
	return *movies, nil
}

// UpsertMovie validates the payload, then replaces the entry with the same
// id or appends a new one. It returns the validated, stored value.
func (s *Service) UpsertMovie(ctx context.Context, actor string, movie Movie) (*Movie, error) {
	if err := validateMovie(&movie); err != nil {
		return nil, err
	}

	created := false
	_, err := docstore.Update(ctx, s.store, moviesFile, &[]Movie{}, func(cur *[]Movie) (*[]Movie, error) {
		movies := *cur
		idx := -1
		for i := range movies {
			if movies[i].ID == movie.ID {
				idx = i
				break
			}
		}
		if idx == -1 {
			movies = append(movies, movie)
			created = true
		} else {
			movies[idx] = movie
		}
		return &movies, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save movie: %w", err)
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	if err := s.audit.Append(actor, fmt.Sprintf("%s movie %s", verb, movie.Title)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", movie.ID).Str("title", movie.Title).Bool("created", created).Msg("movie upserted")
	return &movie, nil
}

// DeleteMovie removes the entry with the given id, failing with
// ErrMovieNotFound when no entry matches.
func (s *Service) DeleteMovie(ctx context.Context, actor, id string) (*Movie, error) {
	var removed Movie
	_, err := docstore.Update(ctx, s.store, moviesFile, &[]Movie{}, func(cur *[]Movie) (*[]Movie, error) {
		movies := *cur
		for i := range movies {
			if movies[i].ID == id {
				removed = movies[i]
				movies = append(movies[:i], movies[i+1:]...)
				return &movies, nil
			}
		}
		return nil, ErrMovieNotFound
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Append(actor, fmt.Sprintf("deleted movie %s", removed.Title)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", id).Str("title", removed.Title).Msg("movie deleted")
	return &removed, nil
}
