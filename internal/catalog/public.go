package catalog

import "context"

// PublicCatalog is the browse payload served to viewers: only published
// movies and episodes are included.
type PublicCatalog struct {
	Categories []Category `json:"categories"`
	Movies     []Movie    `json:"movies"`
	Series     []Series   `json:"series"`
}

// Public assembles the viewer-facing catalog. Unpublished movies are
// dropped; within each series unpublished episodes are dropped, then empty
// seasons and empty series are pruned.
func (s *Service) Public(ctx context.Context) (*PublicCatalog, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	movies, err := s.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	series, err := s.ListSeries(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if m.Published {
			published = append(published, m)
		}
	}

	visible := make([]Series, 0, len(series))
	for _, sr := range series {
		seasons := make([]Season, 0, len(sr.Seasons))
		for _, season := range sr.Seasons {
			episodes := make([]Episode, 0, len(season.Episodes))
			for _, ep := range season.Episodes {
				if ep.Published {
					episodes = append(episodes, ep)
				}
			}
			if len(episodes) > 0 {
				seasons = append(seasons, Season{Season: season.Season, Episodes: episodes})
			}
		}
		if len(seasons) > 0 {
			sr.Seasons = seasons
			visible = append(visible, sr)
		}
	}

	return &PublicCatalog{
		Categories: categories,
		Movies:     published,
		Series:     visible,
	}, nil
}
