package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"libri/internal/auth"
	"libri/internal/config"
	"libri/internal/library"
	"libri/internal/platform/postgres"
	"libri/internal/user"
)

type demoBook struct {
	catalogID string
	title     string
	authors   []string
	status    library.Status
	rating    int
	review    string
}

var demoBooks = []demoBook{
	{catalogID: "B1hSG45JCX4C", title: "Dune", authors: []string{"Frank Herbert"}, status: library.StatusCompleted, rating: 5, review: "Still the best."},
	{catalogID: "yxv1LK5gyV4C", title: "The Hobbit", authors: []string{"J. R. R. Tolkien"}, status: library.StatusReading, rating: 4},
	{catalogID: "PGR2AwAAQBAJ", title: "To Kill a Mockingbird", authors: []string{"Harper Lee"}, status: library.StatusWantToRead},
	{catalogID: "kotPYEqx7kMC", title: "1984", authors: []string{"George Orwell"}, status: library.StatusCompleted, rating: 4},
	{catalogID: "iXn5U2IzVH0C", title: "The Great Gatsby", authors: []string{"F. Scott Fitzgerald"}, status: library.StatusWantToRead},
}

type account struct {
	name, email, password string
}

func main() {
	var acct account
	flag.StringVar(&acct.name, "name", "Demo Reader", "Display name of the demo user")
	flag.StringVar(&acct.email, "email", "demo@libri.local", "Email of the demo user")
	flag.StringVar(&acct.password, "password", "demo-password", "Password of the demo user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("connect to database", "dsn", cfg.RedactedDSN(), "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, "up"); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}

	users := user.NewPostgresRepo(pool, cfg.DBTimeout)
	books := library.NewPostgresRepo(pool, cfg.DBTimeout)
	authService := auth.NewService(user.NewService(users), nil, auth.Options{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})

	n, err := seed(ctx, authService, library.NewService(books), acct)
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed finished", "email", acct.email, "added", n, "total", len(demoBooks))
}

// seed makes sure the demo account exists and holds every demo book. It is
// safe to run repeatedly; it returns how many books were added.
func seed(ctx context.Context, authService *auth.Service, libraryService *library.Service, acct account) (int, error) {
	sess, err := authService.Register(ctx, acct.name, acct.email, acct.password)
	if errors.Is(err, auth.ErrDuplicateIdentity) {
		sess, err = authService.Login(ctx, acct.email, acct.password)
	}
	if err != nil {
		return 0, fmt.Errorf("demo account: %w", err)
	}
	userID := sess.User.ID

	added := 0
	for _, b := range demoBooks {
		saved, err := libraryService.SaveBook(ctx, userID, library.SaveCommand{
			CatalogID:   b.catalogID,
			Title:       b.title,
			Authors:     b.authors,
			PreviewLink: "https://books.google.com/books?id=" + b.catalogID,
		})
		if errors.Is(err, library.ErrAlreadySaved) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("save %q: %w", b.title, err)
		}

		status, rating, review := b.status, b.rating, b.review
		if _, err := libraryService.UpdateBook(ctx, userID, saved.ID, library.Patch{
			Status: &status,
			Rating: &rating,
			Review: &review,
		}); err != nil {
			return added, fmt.Errorf("annotate %q: %w", b.title, err)
		}
		added++
	}
	return added, nil
}
