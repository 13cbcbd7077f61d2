package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverBuildsQueryAndPages(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/tv", r.URL.Path)
		queries = append(queries, r.URL.RawQuery)
		q := r.URL.Query()
		assert.Equal(t, "k", q.Get("api_key"))
		assert.Equal(t, "35|18", q.Get("with_genres"))
		assert.Equal(t, "1990-01-01", q.Get("first_air_date.gte"))
		assert.Equal(t, "1999-12-31", q.Get("first_air_date.lte"))
		page := q.Get("page")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"page":%s,"total_pages":2,"results":[
			{"id":%s0,"name":"Show %s","first_air_date":"1994-09-22","popularity":9.5,"genre_ids":[35]},
			{"id":%s1,"name":"Adult","adult":true}
		]}`, page, page, page, page)
	}))
	defer srv.Close()

	c := New("k", 0)
	c.BaseURL = srv.URL
	got, err := c.Discover(context.Background(), Query{Kind: KindTV, GenreIDs: []int{35, 18}, FromYear: 1990, ToYear: 1999}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, queries, 2)
	assert.Equal(t, "Show 1", got[0].Title)
	assert.Equal(t, KindTV, got[0].Kind)
	assert.Equal(t, int32(10), got[0].TMDBID)
	assert.Equal(t, 1994, got[0].ReleaseDate.Year())
}

func TestPopularStopsAtMaxPages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/movie/popular", r.URL.Path)
		fmt.Fprint(w, `{"page":1,"total_pages":50,"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-30","popularity":80}]}`)
	}))
	defer srv.Close()

	c := New("k", 0)
	c.BaseURL = srv.URL
	got, err := c.Popular(context.Background(), KindMovie, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, got, 1)
	assert.Equal(t, "The Matrix", got[0].Title)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("k", 0)
	c.BaseURL = srv.URL
	_, err := c.Popular(context.Background(), KindMovie, 1)
	assert.Error(t, err)

	_, err = New("", 0).Popular(context.Background(), KindMovie, 1)
	assert.Error(t, err)

	_, err = c.Discover(context.Background(), Query{Kind: "radio"}, 1)
	assert.Error(t, err)
}
