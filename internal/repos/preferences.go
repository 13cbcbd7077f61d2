package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zabege/tg-rec-bot/internal/model"
)

type PreferencesRepo struct {
	db *pgxpool.Pool
}

// SaveResponse upserts the response keyed by participant+location; the last
// write wins but the original submission order is kept.
func (r *PreferencesRepo) SaveResponse(ctx context.Context, resp model.SurveyResponse) error {
	genres := resp.Genres
	if genres == nil {
		genres = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO survey_responses (location, participant, genres, content_type, era)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (location, participant) DO UPDATE
		SET genres = EXCLUDED.genres,
		    content_type = EXCLUDED.content_type,
		    era = EXCLUDED.era,
		    updated_at = NOW()`,
		resp.Location, resp.Participant, genres, string(resp.ContentType), string(resp.Era),
	)
	if err != nil {
		return fmt.Errorf("upsert survey response: %w", err)
	}
	return nil
}

func (r *PreferencesRepo) LoadResponses(ctx context.Context, location string) ([]model.SurveyResponse, error) {
	rows, err := r.db.Query(ctx, `
		SELECT participant, genres, content_type, era, updated_at
		FROM survey_responses
		WHERE location = $1
		ORDER BY created_at, participant`, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SurveyResponse
	for rows.Next() {
		resp := model.SurveyResponse{Location: location}
		var ct, era string
		if err := rows.Scan(&resp.Participant, &resp.Genres, &ct, &era, &resp.UpdatedAt); err != nil {
			return nil, err
		}
		resp.ContentType = model.ContentType(ct)
		resp.Era = model.Era(era)
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *PreferencesRepo) CountDistinctParticipants(ctx context.Context, location string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT participant) FROM survey_responses WHERE location = $1`, location).Scan(&n)
	return n, err
}

func (r *PreferencesRepo) ClearResponses(ctx context.Context, location string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM survey_responses WHERE location = $1`, location)
	return err
}
