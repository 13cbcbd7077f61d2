package repos

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMemberCount is assumed for a location nobody registered: a private
// chat holds the participant and the bot.
const DefaultMemberCount = 2

type Repository struct {
	db *pgxpool.Pool

	Sessions    *SessionsRepo
	Preferences *PreferencesRepo
	Locations   *LocationsRepo
	Movies      *MoviesRepo
	Winners     *WinnersRepo
}

func New(db *pgxpool.Pool) *Repository {
	r := &Repository{db: db}
	r.Sessions = &SessionsRepo{db: db}
	r.Preferences = &PreferencesRepo{db: db}
	r.Locations = &LocationsRepo{db: db}
	r.Movies = &MoviesRepo{db: db}
	r.Winners = &WinnersRepo{db: db}
	return r
}
