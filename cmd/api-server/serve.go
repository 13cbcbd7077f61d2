package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zabege/tg-rec-bot/internal/battle"
	"github.com/zabege/tg-rec-bot/internal/catalog"
	"github.com/zabege/tg-rec-bot/internal/deps"
	"github.com/zabege/tg-rec-bot/internal/jobs"
	"github.com/zabege/tg-rec-bot/internal/lobby"
	"github.com/zabege/tg-rec-bot/internal/migrate"
	"github.com/zabege/tg-rec-bot/internal/preference"
	"github.com/zabege/tg-rec-bot/internal/repos"
	"github.com/zabege/tg-rec-bot/internal/server"
	"github.com/zabege/tg-rec-bot/pkg/cache"
	pkgdb "github.com/zabege/tg-rec-bot/pkg/db"
	"github.com/zabege/tg-rec-bot/pkg/signer"
	"github.com/zabege/tg-rec-bot/pkg/tmdb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

type locationStore interface {
	battle.Membership
	deps.Locations
}

type winnerStore interface {
	battle.WinnerRecorder
	deps.Winners
}

// storage bundles the stores the engine and lobby run on.
type storage struct {
	name      string
	sessions  battle.Store
	prefs     lobby.Preferences
	locations locationStore
	winners   winnerStore
	movies    *repos.MoviesRepo
	close     func()
}

func openStorage(ctx context.Context) (*storage, error) {
	if cfg.InMemory() {
		log.Warn().Msg("DATABASE_URL not set; using in-memory storage")
		return &storage{
			name:      "memory",
			sessions:  repos.NewMemorySessions(),
			prefs:     repos.NewMemoryPreferences(),
			locations: repos.NewMemoryLocations(),
			winners:   repos.NewMemoryWinners(),
			close:     func() {},
		}, nil
	}
	pool, err := pkgdb.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := migrate.Up(cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, err
	}
	r := repos.New(pool)
	return &storage{
		name:      "postgres",
		sessions:  r.Sessions,
		prefs:     r.Preferences,
		locations: r.Locations,
		winners:   r.Winners,
		movies:    r.Movies,
		close:     pool.Close,
	}, nil
}

func openCache() cache.Cache {
	if cfg.ValkeyAddr == "" {
		return cache.NewInMemory()
	}
	vc, err := cache.NewValkey(cfg.ValkeyAddr, cfg.ValkeyPassword)
	if err != nil {
		log.Error().Err(err).Msg("valkey connect failed, using in-memory cache")
		return cache.NewInMemory()
	}
	return vc
}

// buildCatalog chains the configured sources: TMDb (cached), the local
// catalog table, then the embedded fallback list.
func buildCatalog(c cache.Cache, st *storage) (catalog.Source, *tmdb.Client, error) {
	static, err := catalog.NewStatic()
	if cfg.CatalogFallbackFile != "" {
		static, err = catalog.LoadStatic(cfg.CatalogFallbackFile)
	}
	if err != nil {
		return nil, nil, err
	}
	var sources []catalog.Source
	var client *tmdb.Client
	if cfg.TMDBAPIKey != "" {
		client = tmdb.New(cfg.TMDBAPIKey, cfg.TMDBRatePerSec)
		client.Region = cfg.TMDBRegion
		client.Language = cfg.TMDBLanguage
		sources = append(sources, catalog.NewCached(catalog.NewTMDB(client), c, cfg.CatalogCacheTTL))
	} else {
		log.Warn().Msg("TMDB_API_KEY not set; battles use the local catalog only")
	}
	if st.movies != nil {
		sources = append(sources, catalog.NewStored(st.movies))
	}
	sources = append(sources, static)
	return catalog.WithFallback(sources[0], sources[1:]...), client, nil
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer st.close()

	c := openCache()
	if vc, ok := c.(*cache.ValkeyClient); ok {
		defer vc.Close()
	}

	var deliverer battle.Deliverer = battle.LogDeliverer{}
	if pub, ok := c.(cache.Publisher); ok && cfg.ValkeyAddr != "" {
		deliverer = battle.NewPublishDeliverer(pub)
	}

	source, tmdbClient, err := buildCatalog(c, st)
	if err != nil {
		return err
	}

	engine := battle.New(st.sessions, st.locations,
		battle.WithVoteWindow(cfg.VoteWindow),
		battle.WithNextPairDelay(cfg.NextPairDelay),
		battle.WithDeliverer(deliverer),
		battle.WithWinnerRecorder(st.winners),
	)
	defer engine.Close()

	lb := lobby.New(engine, st.sessions, st.prefs, st.locations, source,
		lobby.WithBattleSize(cfg.BattleSize),
	)

	api := server.New(deps.ServerDeps{
		Engine:    engine,
		Lobby:     lb,
		Drafts:    preference.NewDrafts(c, cfg.SurveyTTL),
		Locations: st.locations,
		Winners:   st.winners,
		Cache:     c,
		Signer:    signer.NewHMAC(cfg.CursorSecret),
		Name:      "tg-rec-bot",
		Storage:   st.name,
		StartedAt: time.Now(),
	}, cfg.CORSAllowedOrigins)

	// Background catalog sync needs both a remote source and a table to fill.
	if tmdbClient != nil && st.movies != nil {
		syncer := jobs.NewCatalogSync(catalog.NewTMDB(tmdbClient), st.movies, c)
		if err := jobs.SeedCatalogIfEmpty(ctx, st.movies, syncer); err != nil {
			log.Error().Err(err).Msg("catalog seed failed")
		}
		if cfg.TMDBTestMode {
			jobs.StartCatalogSyncTest(ctx, syncer)
		} else {
			jobs.StartCatalogSync(ctx, syncer)
		}
	}

	return server.StartHTTP(ctx, ":"+cfg.Port, api.Router())
}
