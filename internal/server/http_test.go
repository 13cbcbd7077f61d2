package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zabege/tg-rec-bot/internal/battle"
	"github.com/zabege/tg-rec-bot/internal/catalog"
	"github.com/zabege/tg-rec-bot/internal/deps"
	"github.com/zabege/tg-rec-bot/internal/lobby"
	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/internal/preference"
	"github.com/zabege/tg-rec-bot/internal/repos"
	"github.com/zabege/tg-rec-bot/internal/server"
	"github.com/zabege/tg-rec-bot/pkg/cache"
	"github.com/zabege/tg-rec-bot/pkg/signer"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	sessions := repos.NewMemorySessions()
	prefs := repos.NewMemoryPreferences()
	locations := repos.NewMemoryLocations()
	winners := repos.NewMemoryWinners()
	c := cache.NewInMemory()

	engine := battle.New(sessions, locations,
		battle.WithVoteWindow(0),
		battle.WithNextPairDelay(0),
		battle.WithWinnerRecorder(winners),
	)
	t.Cleanup(engine.Close)
	static, err := catalog.NewStatic()
	require.NoError(t, err)
	lb := lobby.New(engine, sessions, prefs, locations, static,
		lobby.WithBattleSize(4),
		lobby.WithShuffle(func([]model.Candidate) {}),
	)
	s := server.New(deps.ServerDeps{
		Engine:    engine,
		Lobby:     lb,
		Drafts:    preference.NewDrafts(c, time.Hour),
		Locations: locations,
		Winners:   winners,
		Cache:     c,
		Signer:    signer.NewHMAC([]byte("test-secret")),
		Name:      "tg-rec-bot",
		Storage:   "memory",
		StartedAt: time.Now(),
	}, nil)
	return s.Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type outcome struct {
	Events []struct {
		Kind   string           `json:"kind"`
		Round  int              `json:"round"`
		Winner *model.Candidate `json:"winner"`
	} `json:"events"`
	Session model.Session `json:"session"`
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]map[string]any](t, w)
	code, _ := body["error"]["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	r := newRouter(t)
	w := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Correlation-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestSingleBattleOverHTTP(t *testing.T) {
	r := newRouter(t)
	w := do(t, r, http.MethodPost, "/sessions", map[string]any{"owner": "u1", "location": "L1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decodeBody[outcome](t, w)
	id := out.Session.ID
	require.NotEmpty(t, id)
	assert.Equal(t, 3, out.Session.TotalRounds)
	assert.Equal(t, "pair_drawn", out.Events[len(out.Events)-1].Kind)

	for round := 1; round <= 3; round++ {
		w = do(t, r, http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"participant": "u1", "position": 1, "round": round})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		out = decodeBody[outcome](t, w)
	}
	require.Equal(t, "terminal", out.Session.State.String())
	require.NotNil(t, out.Session.Winner)

	w = do(t, r, http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"participant": "u1", "position": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "session_finished", errorCode(t, w))

	w = do(t, r, http.MethodGet, "/locations/L1/sessions/current?participant=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decodeBody[model.Session](t, w).ID)

	now := time.Now().UTC()
	w = do(t, r, http.MethodGet, fmt.Sprintf("/winners/%d/%d?limit=1", now.Year(), int(now.Month())), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decodeBody[struct {
		Items      []model.Winner `json:"items"`
		Total      int64          `json:"total"`
		NextCursor string         `json:"next_cursor"`
	}](t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].SessionID)
	assert.Equal(t, int64(1), page.Total)
	require.NotEmpty(t, page.NextCursor)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/winners/%d/%d?limit=1&cursor=%s", now.Year(), int(now.Month()), page.NextCursor), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody[map[string]any](t, w)["count"])
}

func TestVoteErrorsMapToStatus(t *testing.T) {
	r := newRouter(t)
	w := do(t, r, http.MethodPost, "/sessions", map[string]any{"owner": "u1", "location": "L1", "genres": []string{"drama"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeBody[outcome](t, w).Session.ID

	w = do(t, r, http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"participant": "u1", "position": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"participant": "u2", "position": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/sessions/"+id+"/votes", map[string]any{"participant": "u1", "position": 1, "round": 2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "stale_round", errorCode(t, w))

	w = do(t, r, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/sessions", map[string]any{"owner": "u1", "location": "L1", "genres": []string{"western"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupSurveyStartsBattle(t *testing.T) {
	r := newRouter(t)
	w := do(t, r, http.MethodPut, "/locations/G1", map[string]any{"member_count": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	answer := func(p string) *httptest.ResponseRecorder {
		base := "/surveys/G1/" + p
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/genres", map[string]any{"value": "comedy"}).Code)
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/type", map[string]any{"value": "movie"}).Code)
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/era", map[string]any{"value": "any"}).Code)
		return do(t, r, http.MethodPost, base+"/complete", map[string]any{"mode": "group"})
	}

	w = answer("p1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[lobby.SurveyResult](t, w)
	assert.False(t, res.Started)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 2, res.Needed)

	w = answer("p2")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res = decodeBody[lobby.SurveyResult](t, w)
	assert.True(t, res.Started)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, model.ModeGroup, res.Outcome.Session.Mode)
}

func TestSurveyDraft(t *testing.T) {
	r := newRouter(t)
	w := do(t, r, http.MethodGet, "/surveys/L1/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[preference.Draft](t, w).Genres)

	w = do(t, r, http.MethodPost, "/surveys/L1/u1/genres", map[string]any{"value": "Comedy"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"comedy"}, decodeBody[preference.Draft](t, w).Genres)

	w = do(t, r, http.MethodPost, "/surveys/L1/u1/era", map[string]any{"value": "the future"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/surveys/L1/u1/complete", map[string]any{"mode": "group"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
