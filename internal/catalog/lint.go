package catalog

import (
	"context"
	"fmt"
	"strings"
)

// Lint verifies the on-disk catalog: the movie and category collections
// must parse, and every series document must carry a slug with its seasons
// and episodes unique and ascending. All problems are reported together.
func (s *Service) Lint(ctx context.Context) error {
	var problems []string

	if _, err := s.ListCategories(ctx); err != nil {
		problems = append(problems, fmt.Sprintf("categories: %v", err))
	}
	if _, err := s.ListMovies(ctx); err != nil {
		problems = append(problems, fmt.Sprintf("movies: %v", err))
	}

	series, err := s.ListSeries(ctx)
	if err != nil {
		problems = append(problems, fmt.Sprintf("series: %v", err))
	}
	for _, sr := range series {
		if sr.Slug == "" {
			problems = append(problems, fmt.Sprintf("series %q has no slug", sr.SeriesName))
		}
		lastSeason := 0
		for _, season := range sr.Seasons {
			if season.Season <= lastSeason {
				problems = append(problems, fmt.Sprintf("series %q: season numbers not ascending", sr.Slug))
				break
			}
			lastSeason = season.Season

			lastEp := 0
			for _, ep := range season.Episodes {
				if ep.Ep <= lastEp {
					problems = append(problems, fmt.Sprintf("series %q S%d: episode numbers not ascending", sr.Slug, season.Season))
					break
				}
				lastEp = ep.Ep
			}
			if len(season.Episodes) == 0 {
				problems = append(problems, fmt.Sprintf("series %q S%d has no episodes", sr.Slug, season.Season))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("catalog lint found %d problem(s): %s", len(problems), strings.Join(problems, "; "))
	}

	s.logger.Info().Int("series", len(series)).Msg("catalog lint passed")
	return nil
}
