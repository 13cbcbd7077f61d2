package catalog

import (
	"slices"

	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/pkg/tmdb"
)

// TMDB genre ids per kind. TV has no horror or romance genre; a filter
// asking only for those is sent without a genre constraint.
var (
	movieGenreIDs = map[string][]int{
		model.GenreComedy:      {35},
		model.GenreDrama:       {18},
		model.GenreFantasy:     {14, 878},
		model.GenreAction:      {28, 12},
		model.GenreHorror:      {27},
		model.GenreThriller:    {53},
		model.GenreRomance:     {10749},
		model.GenreAnimation:   {16},
		model.GenreDocumentary: {99},
	}
	tvGenreIDs = map[string][]int{
		model.GenreComedy:      {35},
		model.GenreDrama:       {18},
		model.GenreFantasy:     {10765},
		model.GenreAction:      {10759},
		model.GenreThriller:    {9648, 80},
		model.GenreAnimation:   {16},
		model.GenreDocumentary: {99},
	}
)

func genreTable(kind string) map[string][]int {
	if kind == tmdb.KindTV {
		return tvGenreIDs
	}
	return movieGenreIDs
}

func genreIDs(kind string, genres []string) []int {
	table := genreTable(kind)
	var ids []int
	for _, g := range genres {
		ids = append(ids, table[g]...)
	}
	return ids
}

// genreNames maps TMDB ids back onto the vocabulary, in vocabulary order.
func genreNames(kind string, ids []int) []string {
	table := genreTable(kind)
	var out []string
	for _, g := range model.Genres {
		for _, id := range table[g] {
			if slices.Contains(ids, id) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// kindsFor lists the catalog kinds a content type draws from.
func kindsFor(ct model.ContentType) []string {
	switch ct {
	case model.ContentVideo:
		return []string{tmdb.KindMovie}
	case model.ContentSeries:
		return []string{tmdb.KindTV}
	default:
		return []string{tmdb.KindMovie, tmdb.KindTV}
	}
}

// matches reports whether c satisfies every criterion of f.
func matches(c model.Candidate, f model.Filter) bool {
	if len(f.Genres) > 0 && !slices.ContainsFunc(f.Genres, func(g string) bool { return slices.Contains(c.Genres, g) }) {
		return false
	}
	if !slices.Contains(kindsFor(f.ContentType), c.Kind) {
		return false
	}
	from, to := f.Era.YearRange()
	if from > 0 && c.Year < from {
		return false
	}
	if to > 0 && (c.Year == 0 || c.Year > to) {
		return false
	}
	return true
}
