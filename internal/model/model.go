package model

import "time"

// Genre tags a participant may pick in the preference survey.
const (
	GenreComedy      = "comedy"
	GenreDrama       = "drama"
	GenreFantasy     = "fantasy"
	GenreAction      = "action"
	GenreHorror      = "horror"
	GenreThriller    = "thriller"
	GenreRomance     = "romance"
	GenreAnimation   = "animation"
	GenreDocumentary = "documentary"
)

// Genres lists the genre vocabulary in display order.
var Genres = []string{
	GenreComedy, GenreDrama, GenreFantasy, GenreAction, GenreHorror,
	GenreThriller, GenreRomance, GenreAnimation, GenreDocumentary,
}

var AllowedGenres = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Genres))
	for _, g := range Genres {
		m[g] = struct{}{}
	}
	return m
}()

// MaxGenres caps how many genres one survey response may carry.
const MaxGenres = 3

// ContentType is what kind of title a participant wants to watch.
type ContentType string

const (
	ContentVideo  ContentType = "video"
	ContentSeries ContentType = "series"
	ContentEither ContentType = "either"
)

// Era is a release-year bucket.
type Era string

const (
	EraAny     Era = "any"
	EraPre1980 Era = "pre1980"
	Era1980s   Era = "1980s"
	Era1990s   Era = "1990s"
	Era2000s   Era = "2000s"
	Era2010s   Era = "2010s"
	Era2020s   Era = "2020s"
)

// Eras lists the era buckets in display order.
var Eras = []Era{EraAny, EraPre1980, Era1980s, Era1990s, Era2000s, Era2010s, Era2020s}

// YearRange returns the inclusive year window of the bucket. Zero means unbounded.
func (e Era) YearRange() (from, to int) {
	switch e {
	case EraPre1980:
		return 0, 1979
	case Era1980s:
		return 1980, 1989
	case Era1990s:
		return 1990, 1999
	case Era2000s:
		return 2000, 2009
	case Era2010s:
		return 2010, 2019
	case Era2020s:
		return 2020, 0
	default:
		return 0, 0
	}
}

// Candidate kinds as stored in Candidate.Kind.
const (
	KindMovie = "movie"
	KindTV    = "tv"
)

// Candidate is one title competing in a battle. ID is unique across kinds ("movie/603").
type Candidate struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	Overview   string   `json:"overview,omitempty"`
	PosterPath string   `json:"poster_path,omitempty"`
	Year       int      `json:"year,omitempty"`
	Popularity float64  `json:"popularity,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// Filter seeds a battle's candidate list. A zero Filter means "popular".
type Filter struct {
	Genres      []string    `json:"genres,omitempty"`
	ContentType ContentType `json:"content_type,omitempty"`
	Era         Era         `json:"era,omitempty"`
}

// IsZero reports whether the filter carries no criteria at all.
func (f Filter) IsZero() bool {
	return len(f.Genres) == 0 && f.ContentType == "" && f.Era == ""
}

// SurveyResponse is one participant's stated preferences within a location.
type SurveyResponse struct {
	Participant string      `json:"participant" validate:"required"`
	Location    string      `json:"location" validate:"required"`
	Genres      []string    `json:"genres" validate:"max=3,dive,oneof=comedy drama fantasy action horror thriller romance animation documentary"`
	ContentType ContentType `json:"content_type" validate:"required,oneof=video series either"`
	Era         Era         `json:"era" validate:"required,oneof=any pre1980 1980s 1990s 2000s 2010s 2020s"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Mode decides how a battle's rounds are voted.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeGroup  Mode = "group"
)

func (m Mode) Valid() bool { return m == ModeSingle || m == ModeGroup }
