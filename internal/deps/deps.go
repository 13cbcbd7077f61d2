package deps

import (
	"context"
	"time"

	"github.com/zabege/tg-rec-bot/internal/battle"
	"github.com/zabege/tg-rec-bot/internal/lobby"
	"github.com/zabege/tg-rec-bot/internal/model"
	"github.com/zabege/tg-rec-bot/internal/preference"
	"github.com/zabege/tg-rec-bot/internal/repos"

	pkgcache "github.com/zabege/tg-rec-bot/pkg/cache"
	pkgsigner "github.com/zabege/tg-rec-bot/pkg/signer"
)

// Locations registers chat sizes.
type Locations interface {
	SetMemberCount(ctx context.Context, location string, count int) error
	EligibleVoterCount(ctx context.Context, location string) (int, error)
}

// Winners lists finished battles.
type Winners interface {
	ListWinnersPage(ctx context.Context, from, to time.Time, cursor *repos.WinnersCursor, limit int32) ([]model.Winner, error)
	CountWinners(ctx context.Context, from, to time.Time) (int64, error)
}

// ServerDeps holds the dependencies required by handlers and server.
type ServerDeps struct {
	Engine    *battle.Engine
	Lobby     *lobby.Lobby
	Drafts    *preference.Drafts
	Locations Locations
	Winners   Winners
	Cache     pkgcache.Cache
	Signer    pkgsigner.Codec
	Name      string
	Storage   string
	StartedAt time.Time
}
