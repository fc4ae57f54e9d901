package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ValidationError aggregates every violated constraint for a payload, not
// just the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// violations collects constraint failures while a payload is checked.
type violations []string

func (v *violations) addf(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}

// isAbsoluteURL reports whether raw is a well-formed absolute http(s) URL.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func checkOptionalURL(v *violations, field, raw string) {
	if raw != "" && !isAbsoluteURL(raw) {
		v.addf("%s must be an absolute http(s) URL", field)
	}
}

func checkSubtitles(v *violations, subs []Subtitle) {
	for i, sub := range subs {
		if sub.Lang == "" {
			v.addf("subtitles[%d].lang is required", i)
		}
		if !isAbsoluteURL(sub.URL) {
			v.addf("subtitles[%d].url must be an absolute http(s) URL", i)
		}
	}
}

// validateMovie checks and normalizes a movie payload in place: a missing
// id is generated, nil slices become empty. Returns all violations at once.
func validateMovie(m *Movie) error {
	var v violations

	if m.Title == "" {
		v.addf("title is required")
	}
	if m.Year < 1900 || m.Year > 2100 {
		v.addf("year must be between 1900 and 2100")
	}
	if m.Duration <= 0 {
		v.addf("duration must be a positive integer")
	}
	if !isAbsoluteURL(m.StreamURL) {
		v.addf("streamUrl must be an absolute http(s) URL")
	}
	checkOptionalURL(&v, "poster", m.Poster)
	checkOptionalURL(&v, "heroImage", m.HeroImage)
	checkOptionalURL(&v, "trailerUrl", m.TrailerURL)
	checkSubtitles(&v, m.Subtitles)

	if err := v.err(); err != nil {
		return err
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Subtitles == nil {
		m.Subtitles = []Subtitle{}
	}
	return nil
}

// validateCategory checks and normalizes a category payload. A missing
// slug is derived from the name (lowercase, ASCII-safe, hyphen-separated).
func validateCategory(c *Category) error {
	var v violations

	if c.Name == "" {
		v.addf("name is required")
	}
	if c.Order < 0 {
		v.addf("order must not be negative")
	}

	if err := v.err(); err != nil {
		return err
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	return nil
}

// validateEpisode checks and normalizes an episode payload.
func validateEpisode(in *EpisodeInput) error {
	var v violations

	if in.SeriesName == "" {
		v.addf("seriesName is required")
	}
	if in.Season < 1 {
		v.addf("season must be a positive integer")
	}
	if in.Ep < 1 {
		v.addf("ep must be a positive integer")
	}
	if in.Title == "" {
		v.addf("title is required")
	}
	if !isAbsoluteURL(in.StreamURL) {
		v.addf("streamUrl must be an absolute http(s) URL")
	}
	if in.Duration < 0 {
		v.addf("duration must not be negative")
	}
	checkOptionalURL(&v, "poster", in.Poster)
	checkSubtitles(&v, in.Subtitles)

	if err := v.err(); err != nil {
		return err
	}

	if in.Subtitles == nil {
		in.Subtitles = []Subtitle{}
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return nil
}
