// Command seed fills the configured database with demo data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/seed"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/uploads"
)

func main() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	envFile := fs.String("env", ".env", "dotenv file to load")
	dbURL := fs.String("db", "", "database URL or SQLite path (default: $DATABASE_URL)")
	users := fs.Int("users", 10, "number of users")
	items := fs.Int("items", 40, "number of items")
	messages := fs.Int("messages", 30, "number of messages")
	resolved := fs.Float64("resolved", 0.2, "fraction of items marked resolved")
	fakerSeed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	fs.Parse(os.Args[1:])

	if err := run(*envFile, *dbURL, *fakerSeed, seed.Options{
		Users:         *users,
		Items:         *items,
		Messages:      *messages,
		ResolvedShare: *resolved,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile, dbURL string, fakerSeed int64, opts seed.Options) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}

	images, err := uploads.New(cfg.UploadFolder)
	if err != nil {
		return err
	}

	// Demo accounts use the cheapest bcrypt cost to keep seeding fast.
	s := seed.New(
		&accounts.Service{DB: database, Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost}, Images: images},
		&catalog.Service{DB: database, Images: images},
		&messaging.Service{DB: database},
		fakerSeed,
	)

	ctx := context.Background()
	res, err := s.Run(ctx, opts)
	if err != nil {
		return err
	}

	users, err := store.ListUsers(ctx, database)
	if err != nil {
		return err
	}

	slog.Info("seed complete", "db", dbPath, "seed", fakerSeed, "accounts", len(users))
	fmt.Printf("Created %d users, %d items (%d resolved) and %d messages.\n", res.Users, res.Items, res.Resolved, res.Messages)
	fmt.Println("Accounts:")
	for _, u := range users {
		fmt.Printf("  %-20s %s\n", u.Username, u.Email)
	}
	fmt.Printf("Every seeded account's password is %q.\n", seed.Password)
	return nil
}
