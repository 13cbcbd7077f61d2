package lobby_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zabege/tg-rec-bot/internal/battle"
	"github.com/zabege/tg-rec-bot/internal/catalog"
	"github.com/zabege/tg-rec-bot/internal/lobby"
	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/internal/repos"
)

type fixture struct {
	lobby    *lobby.Lobby
	engine   *battle.Engine
	sessions *repos.MemorySessions
	prefs    *repos.MemoryPreferences
	members  *repos.MemoryLocations
}

func newFixture(t *testing.T, src catalog.Source) *fixture {
	t.Helper()
	f := &fixture{
		sessions: repos.NewMemorySessions(),
		prefs:    repos.NewMemoryPreferences(),
		members:  repos.NewMemoryLocations(),
	}
	f.engine = battle.New(f.sessions, f.members, battle.WithVoteWindow(0), battle.WithNextPairDelay(0))
	t.Cleanup(f.engine.Close)
	f.lobby = lobby.New(f.engine, f.sessions, f.prefs, f.members, src,
		lobby.WithBattleSize(4),
		lobby.WithShuffle(func([]model.Candidate) {}),
	)
	return f
}

func staticSource(t *testing.T) catalog.Source {
	t.Helper()
	s, err := catalog.NewStatic()
	require.NoError(t, err)
	return s
}

func survey(p, loc string, genres ...string) model.SurveyResponse {
	return model.SurveyResponse{Participant: p, Location: loc, Genres: genres, ContentType: model.ContentVideo, Era: model.EraAny}
}

func TestStartSinglePopular(t *testing.T) {
	f := newFixture(t, staticSource(t))
	out, err := f.lobby.StartSingle(context.Background(), "u1", "L1", model.Filter{})
	require.NoError(t, err)
	require.NotNil(t, out.Session)
	assert.Equal(t, model.ModeSingle, out.Session.Mode)
	assert.Len(t, out.Session.Candidates, 4)
	assert.Equal(t, 3, out.Session.TotalRounds)
	ev, ok := out.Last()
	require.True(t, ok)
	assert.Equal(t, battle.EventPairDrawn, ev.Kind)
}

func TestSubmitSurveySingleStartsImmediately(t *testing.T) {
	f := newFixture(t, staticSource(t))
	res, err := f.lobby.SubmitSurvey(context.Background(), survey("u1", "dm-u1", model.GenreHorror), model.ModeSingle)
	require.NoError(t, err)
	require.True(t, res.Started)
	for _, c := range res.Outcome.Session.Candidates {
		assert.Contains(t, c.Genres, model.GenreHorror)
	}
}

func TestSubmitSurveyGroupWaitsForThreshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, staticSource(t))
	require.NoError(t, f.members.SetMemberCount(ctx, "G1", 6))

	for i, p := range []string{"u1", "u2"} {
		res, err := f.lobby.SubmitSurvey(ctx, survey(p, "G1", model.GenreComedy), model.ModeGroup)
		require.NoError(t, err)
		assert.False(t, res.Started)
		assert.Equal(t, i+1, res.Count)
		assert.Equal(t, 3, res.Needed)
	}

	res, err := f.lobby.SubmitSurvey(ctx, survey("u2", "G1", model.GenreDrama), model.ModeGroup)
	require.NoError(t, err)
	assert.False(t, res.Started, "resubmitting does not add a respondent")
	assert.Equal(t, 2, res.Count)

	res, err = f.lobby.SubmitSurvey(ctx, survey("u3", "G1", model.GenreComedy), model.ModeGroup)
	require.NoError(t, err)
	require.True(t, res.Started)
	assert.Equal(t, model.ModeGroup, res.Outcome.Session.Mode)

	left, err := f.prefs.CountDistinctParticipants(ctx, "G1")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestSubmitSurveyGroupDoesNotStartWhileActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, staticSource(t))
	require.NoError(t, f.members.SetMemberCount(ctx, "G1", 2))

	res, err := f.lobby.SubmitSurvey(ctx, survey("u1", "G1"), model.ModeGroup)
	require.NoError(t, err)
	require.True(t, res.Started)
	first := res.Outcome.Session.ID

	res, err = f.lobby.SubmitSurvey(ctx, survey("u2", "G1"), model.ModeGroup)
	require.NoError(t, err)
	assert.False(t, res.Started)
	assert.Equal(t, first, res.Active)
}

func TestSubmitSurveyRejectsInvalid(t *testing.T) {
	f := newFixture(t, staticSource(t))
	_, err := f.lobby.SubmitSurvey(context.Background(), model.SurveyResponse{Participant: "u1", Location: "L1"}, model.ModeGroup)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.lobby.SubmitSurvey(context.Background(), survey("u1", "L1"), model.Mode("duel"))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

type thinSource struct{}

func (thinSource) Name() string { return "thin" }

func (thinSource) FetchByFilter(context.Context, model.Filter, int) ([]model.Candidate, error) {
	return []model.Candidate{{ID: "movie/1", Kind: model.KindMovie, Title: "Alone"}}, nil
}

func (thinSource) FetchPopular(ctx context.Context, n int) ([]model.Candidate, error) {
	return thinSource{}.FetchByFilter(ctx, model.Filter{}, n)
}

func TestStartSingleInsufficientCandidates(t *testing.T) {
	f := newFixture(t, thinSource{})
	_, err := f.lobby.StartSingle(context.Background(), "u1", "L1", model.Filter{})
	assert.ErrorIs(t, err, model.ErrInsufficientCandidates)
}

func TestCurrentPrefersOwnThenGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, staticSource(t))

	_, err := f.lobby.Current(ctx, "u1", "G1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, f.members.SetMemberCount(ctx, "G1", 2))
	res, err := f.lobby.SubmitSurvey(ctx, survey("u1", "G1"), model.ModeGroup)
	require.NoError(t, err)
	group := res.Outcome.Session.ID

	s, err := f.lobby.Current(ctx, "u9", "G1")
	require.NoError(t, err)
	assert.Equal(t, group, s.ID)

	own, err := f.lobby.StartSingle(ctx, "u9", "G1", model.Filter{})
	require.NoError(t, err)
	s, err = f.lobby.Current(ctx, "u9", "G1")
	require.NoError(t, err)
	assert.Equal(t, own.Session.ID, s.ID)
}
