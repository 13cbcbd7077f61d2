package preference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zabege/tg-rec-bot/internal/model"
)

func resp(p string, ct model.ContentType, era model.Era, genres ...string) model.SurveyResponse {
	return model.SurveyResponse{Participant: p, Location: "L1", Genres: genres, ContentType: ct, Era: era}
}

func TestAggregateGroupGenresRankByFrequencyThenInputOrder(t *testing.T) {
	f, err := AggregateGroup([]model.SurveyResponse{
		resp("u1", model.ContentVideo, model.EraAny, model.GenreComedy, model.GenreDrama),
		resp("u2", model.ContentVideo, model.EraAny, model.GenreComedy, model.GenreAction),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.GenreComedy, model.GenreDrama, model.GenreAction}, f.Genres)
}

func TestAggregateGroupCapsGenresAtThree(t *testing.T) {
	f, err := AggregateGroup([]model.SurveyResponse{
		resp("u1", model.ContentVideo, model.EraAny, model.GenreHorror, model.GenreDrama, model.GenreAction),
		resp("u2", model.ContentVideo, model.EraAny, model.GenreRomance, model.GenreAction, model.GenreComedy),
		resp("u3", model.ContentVideo, model.EraAny, model.GenreComedy),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.GenreAction, model.GenreComedy, model.GenreHorror}, f.Genres)
}

func TestAggregateGroupPluralityWithFirstSeenTieBreak(t *testing.T) {
	f, err := AggregateGroup([]model.SurveyResponse{
		resp("u1", model.ContentSeries, model.Era1990s),
		resp("u2", model.ContentVideo, model.Era2010s),
		resp("u3", model.ContentVideo, model.Era1990s),
		resp("u4", model.ContentSeries, model.Era2010s),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContentSeries, f.ContentType)
	assert.Equal(t, model.Era1990s, f.Era)
	assert.Empty(t, f.Genres)

	f, err = AggregateGroup([]model.SurveyResponse{
		resp("u1", model.ContentSeries, model.Era1990s),
		resp("u2", model.ContentVideo, model.Era2010s),
		resp("u3", model.ContentVideo, model.Era2010s),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContentVideo, f.ContentType)
	assert.Equal(t, model.Era2010s, f.Era)
}

func TestAggregateGroupIsDeterministic(t *testing.T) {
	in := []model.SurveyResponse{
		resp("u1", model.ContentEither, model.EraAny, model.GenreThriller, model.GenreFantasy),
		resp("u2", model.ContentVideo, model.Era2000s, model.GenreFantasy, model.GenreThriller, model.GenreAnimation),
	}
	first, err := AggregateGroup(in)
	require.NoError(t, err)
	for range 20 {
		again, err := AggregateGroup(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAggregateGroupEmpty(t *testing.T) {
	_, err := AggregateGroup(nil)
	assert.ErrorIs(t, err, model.ErrNoData)
}

func TestAggregateSingleIsPassthrough(t *testing.T) {
	r := resp("u1", model.ContentSeries, model.Era1980s, model.GenreHorror)
	f := AggregateSingle(r)
	assert.Equal(t, model.Filter{Genres: []string{model.GenreHorror}, ContentType: model.ContentSeries, Era: model.Era1980s}, f)
}

func TestCompletionThreshold(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 1, 3: 2, 4: 3, 10: 3}
	for eligible, want := range cases {
		assert.Equal(t, want, CompletionThreshold(eligible), "eligible=%d", eligible)
	}
}
