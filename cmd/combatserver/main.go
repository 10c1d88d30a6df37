package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/combatcore/internal/api"
	"github.com/udisondev/combatcore/internal/authz"
	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/db"
	"github.com/udisondev/combatcore/internal/game/ability"
	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/gametime"
	"github.com/udisondev/combatcore/internal/metrics"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/notify"
	"github.com/udisondev/combatcore/internal/provider"
	"github.com/udisondev/combatcore/internal/sweeper"
)

const DefaultConfigPath = "config/combatserver.yaml"

// characterSource is what the engines read about characters and weapons.
type characterSource interface {
	provider.Characters
	provider.Equipment
	provider.Elements
}

func main() {
	configPath := flag.String("config", DefaultConfigPath, "path to the server config")
	hashKey := flag.String("hash-key", "", "print the bcrypt hash of an admin secret and exit")
	flag.Parse()

	if *hashKey != "" {
		h, err := authz.HashKey(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	path := *configPath
	if p := os.Getenv("COMBAT_CONFIG"); p != "" {
		path = p
	}
	if err := run(ctx, path); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("combat server starting", "config", configPath, "log_level", cfg.LogLevel)

	keys, err := authz.NewKeyRing(cfg.Admin.Keys)
	if err != nil {
		return fmt.Errorf("loading admin keys: %w", err)
	}
	if len(cfg.Admin.Keys) == 0 {
		slog.Warn("no admin keys configured, admin routes will reject every request")
	}

	// Caller allowlist
	var callers authz.Registry
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		callers = authz.NewRedis(client, cfg.Redis.KeyPrefix, keys.Names()...)
		slog.Info("redis allowlist connected", "addr", cfg.Redis.Addr)
	} else {
		callers = authz.NewMemory(keys.Names()...)
	}
	for _, c := range cfg.Admin.AuthorizedCallers {
		if err := callers.SetAuthorized(ctx, model.Caller(c), true); err != nil {
			return fmt.Errorf("authorizing caller %q: %w", c, err)
		}
	}

	// Notifications
	sinks := notify.Fanout{notify.LogSink{}}
	if cfg.NATS.Enabled {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("combatcore"))
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer nc.Drain()
		sinks = append(sinks, notify.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix))
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mc := metrics.New("combatcore", reg)

	clock := gametime.System{}

	var (
		chars       characterSource
		database    *db.DB
		combatRepo  *db.CombatRepository
		abilityRepo *db.AbilityRepository
		events      api.EventLog
	)
	if cfg.Database.Enabled {
		database, err = db.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return err
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		chars = db.NewCharacterRepository(database.Pool())
		combatRepo = db.NewCombatRepository(database.Pool())
		abilityRepo = db.NewAbilityRepository(database.Pool())
		journal := db.NewJournal(database.Pool())
		sinks = append(sinks, journal)
		events = journal
	} else {
		slog.Warn("database disabled, definitions and characters are kept in memory")
		catalog, err := provider.LoadCatalog(cfg.Characters.CatalogFile)
		if err != nil {
			return fmt.Errorf("loading character catalog: %w", err)
		}
		mem := provider.NewMemory()
		if err := mem.Apply(catalog); err != nil {
			return fmt.Errorf("applying character catalog %s: %w", cfg.Characters.CatalogFile, err)
		}
		if len(catalog.Characters) == 0 {
			slog.Warn("character catalog is empty, every character lookup will fail",
				"file", cfg.Characters.CatalogFile)
		}
		slog.Info("character catalog loaded",
			"file", cfg.Characters.CatalogFile,
			"characters", len(catalog.Characters),
			"weapons", len(catalog.Weapons))
		chars = mem
	}

	// Engines
	var rng combat.RandomSource = combat.DefaultRandom{}
	if cfg.Combat.RandomSeed != 0 {
		rng = combat.NewSeededRandom(cfg.Combat.RandomSeed)
		slog.Info("critical rolls seeded", "seed", cfg.Combat.RandomSeed)
	}
	combatMgr := combat.NewManager(cfg.Combat, clock, rng, chars, chars, callers)
	combatMgr.SetNotifier(sinks)
	combatMgr.SetMetrics(mc)

	abilityMgr := ability.NewManager(cfg.Abilities, clock, chars, chars, callers)
	abilityMgr.SetNotifier(sinks)
	abilityMgr.SetMetrics(mc)

	combatMgr.SetStatusModifier(abilityMgr)

	restored := 0
	if database != nil {
		combatMgr.SetStore(combatRepo)
		abilityMgr.SetStore(abilityRepo)

		if err := combatRepo.RestoreCombat(ctx, combatMgr); err != nil {
			return fmt.Errorf("restoring combat definitions: %w", err)
		}
		restored, err = abilityRepo.RestoreAbilities(ctx, abilityMgr)
		if err != nil {
			return fmt.Errorf("restoring ability definitions: %w", err)
		}
	}
	if restored == 0 {
		seed, err := ability.LoadSeed(cfg.Abilities.SeedFile)
		if err != nil {
			return fmt.Errorf("loading ability catalog: %w", err)
		}
		if err := abilityMgr.Seed(ctx, seed); err != nil {
			return fmt.Errorf("seeding ability catalog: %w", err)
		}
		slog.Info("ability catalog seeded",
			"file", cfg.Abilities.SeedFile,
			"abilities", len(seed.Abilities),
			"combos", len(seed.Combos))
	}

	// HTTP
	opts := api.Options{Keys: keys}
	if cfg.Metrics.Enabled {
		opts.Gatherer = reg
		opts.MetricsPath = cfg.Metrics.Path
	}
	e := api.NewRouter(api.NewHandler(combatMgr, abilityMgr, events), opts)
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting http server", "addr", cfg.HTTP.Addr)
		if err := e.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if cfg.Sweeper.Enabled {
		sw := sweeper.New(cfg.Sweeper.Schedule)
		sw.Add("combat", combatMgr)
		sw.Add("ability", abilityMgr)
		g.Go(func() error {
			return sw.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("combat server stopped")
	return nil
}

func setupLogger(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
