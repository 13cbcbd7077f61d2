package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zabege/tg-rec-bot/internal/model"
)

//go:embed fallback.yaml
var embeddedFallback []byte

type staticFile struct {
	Titles []staticTitle `yaml:"titles"`
}

type staticTitle struct {
	ID         string   `yaml:"id"`
	Kind       string   `yaml:"kind"`
	Title      string   `yaml:"title"`
	Overview   string   `yaml:"overview"`
	PosterPath string   `yaml:"poster_path"`
	Year       int      `yaml:"year"`
	Popularity float64  `yaml:"popularity"`
	Genres     []string `yaml:"genres"`
}

// Static serves a fixed list. It is small, so when too few titles match a
// filter it drops criteria (era and type first, then genres) until at least
// two do.
type Static struct {
	titles []model.Candidate
}

// NewStatic loads the built-in list.
func NewStatic() (*Static, error) {
	return parseStatic(embeddedFallback)
}

// LoadStatic reads a YAML list from path, or the built-in list when path is empty.
func LoadStatic(path string) (*Static, error) {
	if path == "" {
		return NewStatic()
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read fallback catalog: %w", err)
	}
	return parseStatic(data)
}

func parseStatic(data []byte) (*Static, error) {
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fallback catalog: %w", err)
	}
	s := &Static{titles: make([]model.Candidate, 0, len(f.Titles))}
	seen := map[string]struct{}{}
	for i, t := range f.Titles {
		if t.ID == "" || t.Title == "" {
			return nil, fmt.Errorf("fallback catalog entry %d: id and title required", i)
		}
		if t.Kind != model.KindMovie && t.Kind != model.KindTV {
			return nil, fmt.Errorf("fallback catalog entry %s: unknown kind %q", t.ID, t.Kind)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("fallback catalog entry %s: duplicate id", t.ID)
		}
		seen[t.ID] = struct{}{}
		s.titles = append(s.titles, model.Candidate{
			ID: t.ID, Kind: t.Kind, Title: t.Title, Overview: t.Overview, PosterPath: t.PosterPath,
			Year: t.Year, Popularity: t.Popularity, Genres: t.Genres,
		})
	}
	sort.SliceStable(s.titles, func(i, j int) bool { return s.titles[i].Popularity > s.titles[j].Popularity })
	return s, nil
}

func (s *Static) Name() string { return "static" }

func (s *Static) FetchByFilter(_ context.Context, f model.Filter, count int) ([]model.Candidate, error) {
	for _, relaxed := range []model.Filter{
		f,
		{Genres: f.Genres, ContentType: f.ContentType},
		{Genres: f.Genres},
		{},
	} {
		if got := s.match(relaxed, count); len(got) >= 2 {
			return got, nil
		}
	}
	return s.match(model.Filter{}, count), nil
}

func (s *Static) FetchPopular(_ context.Context, count int) ([]model.Candidate, error) {
	return s.match(model.Filter{}, count), nil
}

func (s *Static) match(f model.Filter, count int) []model.Candidate {
	var out []model.Candidate
	for _, c := range s.titles {
		if !matches(c, f) {
			continue
		}
		out = append(out, c)
		if len(out) == count {
			break
		}
	}
	return out
}
