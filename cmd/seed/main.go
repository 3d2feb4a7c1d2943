package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/config"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/domain"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/internal/repository/postgres"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/migrations"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/database"
	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/logger"
)

type bookSeed struct {
	Title    string
	Author   string
	ISBN     string
	Price    int64
	Stock    int
	Category string
	Featured bool
	Discount int
}

var categorySeeds = []domain.Category{
	{Name: "Fiction", Description: "Novels and short stories"},
	{Name: "Science Fiction", Description: "Speculative and futuristic fiction"},
	{Name: "Programming", Description: "Software development and computer science"},
	{Name: "History", Description: "Historical accounts and biographies"},
}

var bookSeeds = []bookSeed{
	{"The Go Programming Language", "Alan A. A. Donovan", "978-0134190440", 3999, 25, "Programming", true, 0},
	{"Designing Data-Intensive Applications", "Martin Kleppmann", "978-1449373320", 4499, 18, "Programming", true, 10},
	{"Database Internals", "Alex Petrov", "978-1492040347", 4299, 12, "Programming", false, 0},
	{"Dune", "Frank Herbert", "978-0441013593", 1899, 40, "Science Fiction", true, 0},
	{"Neuromancer", "William Gibson", "978-0441569595", 1699, 22, "Science Fiction", false, 15},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "978-0441478125", 1599, 14, "Science Fiction", false, 0},
	{"The Remains of the Day", "Kazuo Ishiguro", "978-0679731726", 1499, 30, "Fiction", false, 0},
	{"One Hundred Years of Solitude", "Gabriel Garcia Marquez", "978-0060883287", 1799, 27, "Fiction", true, 0},
	{"The Guns of August", "Barbara W. Tuchman", "978-0345476098", 2099, 9, "History", false, 0},
	{"SPQR: A History of Ancient Rome", "Mary Beard", "978-1631492228", 2299, 11, "History", false, 20},
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("bookstore-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		MaxConns: 5,
		MinConns: 1,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	categoryRepo := postgres.NewCategoryRepository(pool)
	bookRepo := postgres.NewBookRepository(pool)

	now := time.Now().UTC()
	for _, c := range categorySeeds {
		category := c
		category.ID = uuid.New().String()
		category.CreatedAt = now

		err := categoryRepo.Create(ctx, &category)
		switch {
		case err == nil:
			log.Info("category created", slog.String("name", category.Name))
		case errors.Is(err, apperrors.ErrAlreadyExists):
			// Re-runs are expected; keep the existing row.
		default:
			return fmt.Errorf("create category %s: %w", category.Name, err)
		}
	}

	// Resolve category IDs, including those created by earlier runs.
	existing, err := categoryRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	categoryIDs := make(map[string]string, len(existing))
	for _, c := range existing {
		categoryIDs[c.Name] = c.ID
	}

	created := 0
	for _, b := range bookSeeds {
		categoryID, ok := categoryIDs[b.Category]
		if !ok {
			return fmt.Errorf("unknown category %q for book %q", b.Category, b.Title)
		}

		book := &domain.Book{
			ID:                 uuid.New().String(),
			Title:              b.Title,
			Author:             b.Author,
			ISBN:               b.ISBN,
			Price:              b.Price,
			Stock:              b.Stock,
			CategoryID:         &categoryID,
			Featured:           b.Featured,
			DiscountPercentage: b.Discount,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		err := bookRepo.Create(ctx, book)
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrAlreadyExists):
			// ISBN already present from an earlier run.
		default:
			return fmt.Errorf("create book %s: %w", b.Title, err)
		}
	}

	log.Info("seed complete",
		slog.Int("categories", len(categorySeeds)),
		slog.Int("books_created", created),
	)
	return nil
}
