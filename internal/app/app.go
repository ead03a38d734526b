package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/httpserver"
	"github.com/vidtube/backend/internal/logging"
)

const defaultFakeUsers = 10

// Run bootstraps the VidTube backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps))

	logger.Info("starting http server", "port", cfg.AppPort, "storage", cfg.ObjectStore.Driver)

	return httpserver.Serve(ctx, srv, logger)
}

func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	migrationDir, err := absDir(cfg.MigrationDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	switch command {
	case "status":
		statuses, err := db.Status(ctx, pool, migrationDir)
		if err != nil {
			return err
		}
		for _, status := range statuses {
			mark := " "
			if status.Applied {
				mark = "x"
			}
			fmt.Printf("[%s] %s\n", mark, status.Name)
		}
		return nil
	case "up", "":
		applied, err := db.Migrate(ctx, pool, migrationDir)
		for _, name := range applied {
			fmt.Printf("applied migration %s\n", name)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("no migrations to apply")
		}
		return nil
	case "down":
		return errors.New("down migrations are not supported")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev) or fake [count]")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if args[0] == "fake" {
		count := defaultFakeUsers
		if len(args) > 1 {
			count, err = strconv.Atoi(args[1])
			if err != nil || count <= 0 {
				return fmt.Errorf("invalid fake user count %q", args[1])
			}
		}
		return runFakeSeed(ctx, cfg, count)
	}

	seedDir, err := absDir(cfg.SeedDir)
	if err != nil {
		return err
	}

	seedName := args[0]
	if !strings.HasSuffix(seedName, ".sql") {
		seedName = fmt.Sprintf("%s_seed.sql", seedName)
	}

	contents, err := os.ReadFile(filepath.Join(seedDir, seedName))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", seedName, err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", seedName, err)
	}

	fmt.Printf("applied seed %s\n", seedName)
	return nil
}

func runFakeSeed(ctx context.Context, cfg config.Config, count int) error {
	logger := logging.New(os.Stdout, cfg.LogLevel)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	seeder := newFakeSeeder(postgresSeedStores(pool), time.Now().UnixNano())
	summary, err := seeder.Seed(logging.WithLogger(ctx, logger), count)
	if err != nil {
		return err
	}

	fmt.Printf("seeded %d users, %d videos, %d comments, %d tweets, %d likes, %d subscriptions (password %q)\n",
		summary.Users, summary.Videos, summary.Comments, summary.Tweets, summary.Likes, summary.Subscriptions, fakePassword)
	return nil
}

func absDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}
