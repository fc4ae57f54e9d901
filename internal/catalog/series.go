package catalog

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/streavmin/streavmin/internal/docstore"
)

func seriesFile(key string) string {
	return path.Join(seriesDir, key+".json")
}

// ListSeries scans the series directory and returns every parseable
// series document. An individual malformed file is skipped with a warning
// rather than failing the whole listing; the remaining files are still
// independently useful.
func (s *Service) ListSeries(ctx context.Context) ([]Series, error) {
	names, err := s.store.List(seriesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan series directory: %w", err)
	}

	series := make([]Series, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		doc, err := docstore.Read[Series](ctx, s.store, path.Join(seriesDir, name), nil)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("skipping unreadable series file")
			continue
		}
		if doc == nil {
			continue
		}
		series = append(series, *doc)
	}
	return series, nil
}

// GetSeries returns the series document for a slug, or ErrSeriesNotFound.
func (s *Service) GetSeries(ctx context.Context, seriesSlug string) (*Series, error) {
	doc, err := docstore.Read[Series](ctx, s.store, seriesFile(seriesSlug), nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrSeriesNotFound
	}
	return doc, nil
}

// UpsertEpisode merges an episode into its series document in a single
// guarded update: the series is created on first upsert for a new name,
// the target season and episode are found or created, all submitted fields
// overwrite the stored episode, and episodes/seasons are re-sorted
// ascending before persisting.
func (s *Service) UpsertEpisode(ctx context.Context, actor string, in EpisodeInput) (*Series, error) {
	if err := validateEpisode(&in); err != nil {
		return nil, err
	}

	key := slug.Make(in.SeriesName)
	if key == "" {
		return nil, &ValidationError{Violations: []string{"seriesName does not produce a usable slug"}}
	}

	updated, err := docstore.Update(ctx, s.store, seriesFile(key), nil, func(cur *Series) (*Series, error) {
		series := cur
		if series == nil {
			series = &Series{
				ID:         uuid.NewString(),
				SeriesName: in.SeriesName,
				Slug:       key,
				Synopsis:   in.Synopsis,
				Seasons:    []Season{},
			}
		}
		// The submitted name always wins; the synopsis only when non-empty.
		series.SeriesName = in.SeriesName
		if in.Synopsis != "" {
			series.Synopsis = in.Synopsis
		}

		si := -1
		for i := range series.Seasons {
			if series.Seasons[i].Season == in.Season {
				si = i
				break
			}
		}
		if si == -1 {
			series.Seasons = append(series.Seasons, Season{Season: in.Season, Episodes: []Episode{}})
			si = len(series.Seasons) - 1
		}

		season := &series.Seasons[si]
		ei := -1
		for i := range season.Episodes {
			if season.Episodes[i].Ep == in.Ep {
				ei = i
				break
			}
		}
		episode := Episode{
			Ep:        in.Ep,
			Title:     in.Title,
			Synopsis:  in.Synopsis,
			Poster:    in.Poster,
			StreamURL: in.StreamURL,
			Subtitles: in.Subtitles,
			Published: in.Published,
			Duration:  in.Duration,
			Tags:      in.Tags,
		}
		if ei == -1 {
			season.Episodes = append(season.Episodes, episode)
		} else {
			season.Episodes[ei] = episode
		}

		sort.Slice(season.Episodes, func(i, j int) bool {
			return season.Episodes[i].Ep < season.Episodes[j].Ep
		})
		sort.Slice(series.Seasons, func(i, j int) bool {
			return series.Seasons[i].Season < series.Seasons[j].Season
		})
		return series, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save series: %w", err)
	}

	action := fmt.Sprintf("upserted episode %s S%dE%d", in.SeriesName, in.Season, in.Ep)
	if err := s.audit.Append(actor, action); err != nil {
		return nil, err
	}

	s.logger.Info().Str("series", key).Int("season", in.Season).Int("ep", in.Ep).Msg("episode upserted")
	return updated, nil
}

// DeleteEpisode removes one episode from a series document, pruning the
// season entirely when its last episode is removed. Missing series, season
// or episode each fail with the matching not-found error.
func (s *Service) DeleteEpisode(ctx context.Context, actor, seriesSlug string, seasonNumber, episodeNumber int) (*Series, error) {
	updated, err := docstore.Update(ctx, s.store, seriesFile(seriesSlug), nil, func(series *Series) (*Series, error) {
		if series == nil {
			return nil, ErrSeriesNotFound
		}

		si := -1
		for i := range series.Seasons {
			if series.Seasons[i].Season == seasonNumber {
				si = i
				break
			}
		}
		if si == -1 {
			return nil, ErrSeasonNotFound
		}

		season := &series.Seasons[si]
		ei := -1
		for i := range season.Episodes {
			if season.Episodes[i].Ep == episodeNumber {
				ei = i
				break
			}
		}
		if ei == -1 {
			return nil, ErrEpisodeNotFound
		}

		season.Episodes = append(season.Episodes[:ei], season.Episodes[ei+1:]...)
		if len(season.Episodes) == 0 {
			series.Seasons = append(series.Seasons[:si], series.Seasons[si+1:]...)
		}
		return series, nil
	})
	if err != nil {
		return nil, err
	}

	action := fmt.Sprintf("deleted episode %s S%dE%d", seriesSlug, seasonNumber, episodeNumber)
	if err := s.audit.Append(actor, action); err != nil {
		return nil, err
	}

	s.logger.Info().Str("series", seriesSlug).Int("season", seasonNumber).Int("ep", episodeNumber).Msg("episode deleted")
	return updated, nil
}
