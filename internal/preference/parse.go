package preference

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/zabege/tg-rec-bot/internal/model"
)

var foldCaser = cases.Fold()

// maxGenreDistance is how many edits a typed genre may be off by.
const maxGenreDistance = 2

var genreAliases = map[string]string{
	"sci-fi":  model.GenreFantasy,
	"scifi":   model.GenreFantasy,
	"cartoon": model.GenreAnimation,
	"doc":     model.GenreDocumentary,
	"romcom":  model.GenreRomance,
}

// ParseGenre maps free text onto the genre vocabulary. It accepts any case,
// a few aliases, and typos within two edits of exactly one genre.
func ParseGenre(s string) (string, error) {
	in := foldCaser.String(strings.TrimSpace(s))
	if in == "" {
		return "", fmt.Errorf("empty genre: %w", model.ErrInvalidInput)
	}
	if _, ok := model.AllowedGenres[in]; ok {
		return in, nil
	}
	if g, ok := genreAliases[in]; ok {
		return g, nil
	}
	best, bestDist, ambiguous := "", maxGenreDistance+1, false
	for _, g := range model.Genres {
		d := levenshtein.ComputeDistance(in, g)
		switch {
		case d < bestDist:
			best, bestDist, ambiguous = g, d, false
		case d == bestDist:
			ambiguous = true
		}
	}
	if best == "" || ambiguous {
		return "", fmt.Errorf("unknown genre %q: %w", s, model.ErrInvalidInput)
	}
	return best, nil
}

// ParseContentType accepts the content type names plus "movie"/"tv".
func ParseContentType(s string) (model.ContentType, error) {
	switch foldCaser.String(strings.TrimSpace(s)) {
	case "video", "movie", "movies", "film":
		return model.ContentVideo, nil
	case "series", "tv", "show", "shows":
		return model.ContentSeries, nil
	case "either", "any", "both":
		return model.ContentEither, nil
	}
	return "", fmt.Errorf("unknown content type %q: %w", s, model.ErrInvalidInput)
}

func ParseEra(s string) (model.Era, error) {
	in := model.Era(foldCaser.String(strings.TrimSpace(s)))
	for _, e := range model.Eras {
		if e == in {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown era %q: %w", s, model.ErrInvalidInput)
}
