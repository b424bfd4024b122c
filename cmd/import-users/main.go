// Command import-users bulk-loads demo accounts from gzip-compressed JSON
// lines files into one client's storage namespace.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/app"
	"github.com/xenking/storefront/internal/domain/account"
	"github.com/xenking/storefront/internal/storage"
)

func main() {
	var (
		dataDir  string
		pattern  string
		clientID string
		hash     bool
		cfg      app.StorageConfig
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing the user files")
	flag.StringVar(&pattern, "pattern", "users*.jsonl.gz", "glob matching user files inside data-dir")
	flag.StringVar(&clientID, "client", "", "client id (UUID) whose namespace receives the users")
	flag.BoolVar(&hash, "hash-passwords", false, "store imported passwords as bcrypt hashes")
	flag.StringVar(&cfg.Backend, "backend", app.BackendRedis, "storage backend: redis or postgres")
	flag.StringVar(&cfg.DatabaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&cfg.Redis.URL, "redis-url", "redis://localhost:6379/0", "Redis connection URL (or REDIS_URL env)")
	flag.StringVar(&cfg.Redis.KeyPrefix, "redis-prefix", "storefront:", "prefix for every redis key")
	flag.IntVar(&cfg.CompressThreshold, "compress-threshold", 0, "gzip stored values larger than this many bytes")
	flag.Parse()

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if _, err := uuid.Parse(clientID); err != nil {
		slog.Error("client id must be a UUID: set --client")
		os.Exit(1)
	}
	if cfg.Backend == app.BackendMemory {
		slog.Error("the memory backend does not outlive the import")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid storage config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var opts []account.Option
	if hash {
		opts = append(opts, account.WithHashedPasswords(bcrypt.DefaultCost))
	}
	if err := run(ctx, filepath.Join(dataDir, pattern), clientID, cfg, opts); err != nil {
		slog.Error("user import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("user import completed successfully")
}

func run(ctx context.Context, glob, clientID string, cfg app.StorageConfig, opts []account.Option) error {
	files, err := filepath.Glob(glob)
	if err != nil {
		return errors.Wrap(err, "match files")
	}
	if len(files) == 0 {
		return errors.Errorf("no files match %s", glob)
	}
	sort.Strings(files)

	slog.Info("reading user files", slog.Int("files", len(files)))
	users, err := collectUsers(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect users")
	}
	slog.Info("unique users found", slog.Int("count", len(users)))

	store, release, err := app.OpenStorage(ctx, zap.NewNop(), cfg)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer release()

	svc := account.NewService(storage.Scope(store, clientID), opts...)
	res, err := svc.Import(ctx, users)
	if err != nil {
		return errors.Wrap(err, "import users")
	}

	slog.Info("users written",
		slog.String("client", clientID),
		slog.Int("added", res.Added),
		slog.Int("invalid", res.Invalid),
		slog.Int("already_registered", res.Duplicate),
	)
	return nil
}
