package preference

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/pkg/cache"
)

func TestParseGenre(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "comedy", want: model.GenreComedy},
		{in: "  DRAMA ", want: model.GenreDrama},
		{in: "Sci-Fi", want: model.GenreFantasy},
		{in: "comdy", want: model.GenreComedy},
		{in: "thriler", want: model.GenreThriller},
		{in: "western", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGenre(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDraftToggleGenreLimitsToThree(t *testing.T) {
	ctx := context.Background()
	d := NewDrafts(cache.NewInMemory(), time.Minute)

	for _, g := range []string{"comedy", "drama", "action"} {
		_, err := d.ToggleGenre(ctx, "L1", "u1", g)
		require.NoError(t, err)
	}
	_, err := d.ToggleGenre(ctx, "L1", "u1", "horror")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	dr, err := d.ToggleGenre(ctx, "L1", "u1", "drama")
	require.NoError(t, err)
	assert.Equal(t, []string{model.GenreComedy, model.GenreAction}, dr.Genres)

	dr, err = d.ToggleGenre(ctx, "L1", "u1", "horror")
	require.NoError(t, err)
	assert.Equal(t, []string{model.GenreComedy, model.GenreAction, model.GenreHorror}, dr.Genres)
}

func TestDraftsAreScopedByParticipantAndLocation(t *testing.T) {
	ctx := context.Background()
	d := NewDrafts(cache.NewInMemory(), time.Minute)

	_, err := d.ToggleGenre(ctx, "L1", "u1", "comedy")
	require.NoError(t, err)

	other, err := d.Get(ctx, "L2", "u1")
	require.NoError(t, err)
	assert.Empty(t, other.Genres)

	other, err = d.Get(ctx, "L1", "u2")
	require.NoError(t, err)
	assert.Empty(t, other.Genres)
}

func TestDraftComplete(t *testing.T) {
	ctx := context.Background()
	d := NewDrafts(cache.NewInMemory(), time.Minute)

	_, err := d.Complete(ctx, "L1", "u1")
	assert.ErrorIs(t, err, model.ErrInvalidInput, "type and era are required")

	_, err = d.ToggleGenre(ctx, "L1", "u1", "animation")
	require.NoError(t, err)
	_, err = d.SetContentType(ctx, "L1", "u1", "tv")
	require.NoError(t, err)
	_, err = d.SetEra(ctx, "L1", "u1", "2000s")
	require.NoError(t, err)

	got, err := d.Complete(ctx, "L1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{model.GenreAnimation}, got.Genres)
	assert.Equal(t, model.ContentSeries, got.ContentType)
	assert.Equal(t, model.Era2000s, got.Era)

	after, err := d.Get(ctx, "L1", "u1")
	require.NoError(t, err)
	assert.Empty(t, after.Genres)
	assert.Empty(t, after.ContentType)
}

func TestDraftRejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	d := NewDrafts(cache.NewInMemory(), time.Minute)

	_, err := d.SetContentType(ctx, "L1", "u1", "podcast")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = d.SetEra(ctx, "L1", "u1", "1970s")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = d.Get(ctx, "", "u1")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
