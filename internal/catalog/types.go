package catalog

// Subtitle is a single subtitle track reference.
type Subtitle struct {
	Lang  string `json:"lang"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Movie is one entry in the movie collection document.
type Movie struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Synopsis   string     `json:"synopsis"`
	Year       int        `json:"year"`
	Duration   int        `json:"duration"`
	Genres     []string   `json:"genres"`
	Tags       []string   `json:"tags"`
	Poster     string     `json:"poster,omitempty"`
	HeroImage  string     `json:"heroImage,omitempty"`
	TrailerURL string     `json:"trailerUrl,omitempty"`
	StreamURL  string     `json:"streamUrl"`
	Subtitles  []Subtitle `json:"subtitles"`
	Published  bool       `json:"published"`
	Featured   bool       `json:"featured"`
}

// Category is one entry in the category collection document. The
// collection is kept sorted by Order ascending after every mutation.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Order int    `json:"order"`
}

// Episode is one episode within a season.
type Episode struct {
	Ep        int        `json:"ep"`
	Title     string     `json:"title"`
	Synopsis  string     `json:"synopsis"`
	Poster    string     `json:"poster,omitempty"`
	StreamURL string     `json:"streamUrl"`
	Subtitles []Subtitle `json:"subtitles"`
	Published bool       `json:"published"`
	Duration  int        `json:"duration,omitempty"`
	Tags      []string   `json:"tags"`
}

// Season groups episodes by season number. A season with zero episodes is
// pruned from its series.
type Season struct {
	Season   int       `json:"season"`
	Episodes []Episode `json:"episodes"`
}

// Series is one document per series, stored at catalog/series/<slug>.json.
// Seasons are kept ascending by season number, episodes ascending by
// episode number.
type Series struct {
	ID         string   `json:"id"`
	SeriesName string   `json:"seriesName"`
	Slug       string   `json:"slug"`
	Synopsis   string   `json:"synopsis"`
	Seasons    []Season `json:"seasons"`
}

// EpisodeInput is the payload for UpsertEpisode. The series document is
// located (or created) by slugifying SeriesName.
type EpisodeInput struct {
	SeriesName string     `json:"seriesName"`
	Season     int        `json:"season"`
	Ep         int        `json:"ep"`
	Title      string     `json:"title"`
	Synopsis   string     `json:"synopsis"`
	Poster     string     `json:"poster,omitempty"`
	StreamURL  string     `json:"streamUrl"`
	Subtitles  []Subtitle `json:"subtitles"`
	Published  bool       `json:"published"`
	Duration   int        `json:"duration,omitempty"`
	Tags       []string   `json:"tags"`
}
