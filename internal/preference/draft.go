package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/pkg/cache"
)

var validate = validator.New()

// Draft is a survey a participant is still filling in.
type Draft struct {
	Participant string            `json:"participant"`
	Location    string            `json:"location"`
	Genres      []string          `json:"genres"`
	ContentType model.ContentType `json:"content_type,omitempty"`
	Era         model.Era         `json:"era,omitempty"`
}

// Drafts keeps in-progress surveys in the cache, one per participant and
// location, expiring after ttl of inactivity.
type Drafts struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewDrafts(c cache.Cache, ttl time.Duration) *Drafts {
	return &Drafts{cache: c, ttl: ttl, now: time.Now}
}

func draftKey(location, participant string) string {
	return "survey:" + location + ":" + participant
}

// Get returns the participant's draft, or an empty one.
func (d *Drafts) Get(ctx context.Context, location, participant string) (Draft, error) {
	if location == "" || participant == "" {
		return Draft{}, fmt.Errorf("participant and location required: %w", model.ErrInvalidInput)
	}
	empty := Draft{Participant: participant, Location: location, Genres: []string{}}
	raw, ok := d.cache.Get(ctx, draftKey(location, participant))
	if !ok {
		return empty, nil
	}
	var dr Draft
	if err := json.Unmarshal([]byte(raw), &dr); err != nil {
		log.Warn().Err(err).Str("location", location).Str("participant", participant).Msg("discarding unreadable survey draft")
		return empty, nil
	}
	if dr.Genres == nil {
		dr.Genres = []string{}
	}
	return dr, nil
}

// ToggleGenre selects genre, or unselects it when already chosen.
func (d *Drafts) ToggleGenre(ctx context.Context, location, participant, genre string) (Draft, error) {
	g, err := ParseGenre(genre)
	if err != nil {
		return Draft{}, err
	}
	return d.mutate(ctx, location, participant, func(dr *Draft) error {
		if i := slices.Index(dr.Genres, g); i >= 0 {
			dr.Genres = slices.Delete(dr.Genres, i, i+1)
			return nil
		}
		if len(dr.Genres) >= model.MaxGenres {
			return fmt.Errorf("at most %d genres: %w", model.MaxGenres, model.ErrInvalidInput)
		}
		dr.Genres = append(dr.Genres, g)
		return nil
	})
}

func (d *Drafts) SetContentType(ctx context.Context, location, participant, contentType string) (Draft, error) {
	ct, err := ParseContentType(contentType)
	if err != nil {
		return Draft{}, err
	}
	return d.mutate(ctx, location, participant, func(dr *Draft) error {
		dr.ContentType = ct
		return nil
	})
}

func (d *Drafts) SetEra(ctx context.Context, location, participant, era string) (Draft, error) {
	e, err := ParseEra(era)
	if err != nil {
		return Draft{}, err
	}
	return d.mutate(ctx, location, participant, func(dr *Draft) error {
		dr.Era = e
		return nil
	})
}

// Complete turns the draft into a validated response and discards the draft.
// A draft with no genres means any genre.
func (d *Drafts) Complete(ctx context.Context, location, participant string) (model.SurveyResponse, error) {
	dr, err := d.Get(ctx, location, participant)
	if err != nil {
		return model.SurveyResponse{}, err
	}
	resp := model.SurveyResponse{
		Participant: participant,
		Location:    location,
		Genres:      dr.Genres,
		ContentType: dr.ContentType,
		Era:         dr.Era,
		UpdatedAt:   d.now().UTC(),
	}
	if err := Validate(resp); err != nil {
		return model.SurveyResponse{}, err
	}
	if err := d.cache.Delete(ctx, draftKey(location, participant)); err != nil {
		log.Warn().Err(err).Str("location", location).Str("participant", participant).Msg("survey draft delete failed")
	}
	return resp, nil
}

func (d *Drafts) mutate(ctx context.Context, location, participant string, fn func(*Draft) error) (Draft, error) {
	dr, err := d.Get(ctx, location, participant)
	if err != nil {
		return Draft{}, err
	}
	if err := fn(&dr); err != nil {
		return Draft{}, err
	}
	b, err := json.Marshal(dr)
	if err != nil {
		return Draft{}, err
	}
	if err := d.cache.Set(ctx, draftKey(location, participant), string(b), d.ttl); err != nil {
		return Draft{}, fmt.Errorf("save survey draft: %w", err)
	}
	return dr, nil
}

// Validate checks a response against the survey vocabulary.
func Validate(r model.SurveyResponse) error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("survey %s: %w", verrs[0].Field(), model.ErrInvalidInput)
		}
		return fmt.Errorf("survey: %w", model.ErrInvalidInput)
	}
	return nil
}
