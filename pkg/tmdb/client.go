package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Kinds accepted by Discover and Popular.
const (
	KindMovie = "movie"
	KindTV    = "tv"
)

type Client struct {
	APIKey   string
	BaseURL  string
	Region   string
	Language string
	Client   *http.Client

	limiter *rate.Limiter
}

type Title struct {
	TMDBID      int32
	Kind        string
	Title       string
	ReleaseDate time.Time
	Overview    string
	PosterPath  string
	Popularity  float64
	GenreIDs    []int
}

// Query narrows a discover call. Zero years mean unbounded.
type Query struct {
	Kind     string
	GenreIDs []int
	FromYear int
	ToYear   int
}

type listResp struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Results    []listItem `json:"results"`
}

// listItem covers both movie and tv results; tv uses name/first_air_date.
type listItem struct {
	ID           int32   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
	Adult        bool    `json:"adult"`
}

// New builds a client limited to perSecond requests (burst of the same size).
// perSecond <= 0 disables throttling.
func New(apiKey string, perSecond float64) *Client {
	lim := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://api.themoviedb.org/3",
		Client:  &http.Client{Timeout: 15 * time.Second},
		limiter: lim,
	}
}

// Discover lists titles of one kind by popularity. Genre ids are OR-ed.
// If maxPages <= 0, fetch all pages; otherwise stop at maxPages.
func (c *Client) Discover(ctx context.Context, q Query, maxPages int) ([]Title, error) {
	kind, err := checkKind(q.Kind)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	if len(q.GenreIDs) > 0 {
		ids := make([]string, len(q.GenreIDs))
		for i, id := range q.GenreIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("with_genres", strings.Join(ids, "|"))
	}
	dateKey := "primary_release_date"
	if kind == KindTV {
		dateKey = "first_air_date"
	}
	if q.FromYear > 0 {
		params.Set(dateKey+".gte", fmt.Sprintf("%04d-01-01", q.FromYear))
	}
	if q.ToYear > 0 {
		params.Set(dateKey+".lte", fmt.Sprintf("%04d-12-31", q.ToYear))
	}
	return c.list(ctx, "/discover/"+kind, kind, params, maxPages)
}

// Popular lists the currently popular titles of one kind.
func (c *Client) Popular(ctx context.Context, kind string, maxPages int) ([]Title, error) {
	kind, err := checkKind(kind)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, "/"+kind+"/popular", kind, url.Values{}, maxPages)
}

func checkKind(kind string) (string, error) {
	switch kind {
	case KindMovie, KindTV:
		return kind, nil
	case "":
		return KindMovie, nil
	}
	return "", fmt.Errorf("tmdb: unknown kind %q", kind)
}

func (c *Client) list(ctx context.Context, path, kind string, params url.Values, maxPages int) ([]Title, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("missing TMDB API key")
	}
	var out []Title
	for page := 1; ; page++ {
		lr, err := c.fetchPage(ctx, path, params, page)
		if err != nil {
			return nil, err
		}
		for _, it := range lr.Results {
			if it.Adult {
				continue
			}
			t := Title{
				TMDBID:     it.ID,
				Kind:       kind,
				Title:      it.Title,
				Overview:   it.Overview,
				PosterPath: it.PosterPath,
				Popularity: it.Popularity,
				GenreIDs:   it.GenreIDs,
			}
			date := it.ReleaseDate
			if kind == KindTV {
				t.Title, date = it.Name, it.FirstAirDate
			}
			if t.Title == "" {
				continue
			}
			if d, e := time.Parse("2006-01-02", date); e == nil {
				t.ReleaseDate = d
			}
			out = append(out, t)
		}
		if (maxPages > 0 && page >= maxPages) || lr.Page >= lr.TotalPages {
			return out, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, path string, params url.Values, page int) (listResp, error) {
	var lr listResp
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return lr, err
		}
	}
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return lr, err
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", c.APIKey)
	if c.Region != "" {
		q.Set("region", c.Region)
	}
	if c.Language != "" {
		q.Set("language", c.Language)
	}
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return lr, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return lr, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return lr, fmt.Errorf("tmdb %s status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return lr, err
	}
	return lr, nil
}
