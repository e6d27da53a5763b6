// Command seed-db loads the ticket catalog from a JSON file and seeds a
// handful of demo discount codes. Safe to re-run: everything upserts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/gatepass/internal/domain/discount"
	"github.com/xenking/gatepass/internal/domain/ticket"
	"github.com/xenking/gatepass/internal/storage/postgres"
)

type ticketTypeJSON struct {
	TypeName    string          `json:"typeName"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	Currency    string          `json:"currency"`
	MaxPerDay   int             `json:"maxPerDay"`
	PhotoURL    string          `json:"photoUrl"`
}

type seedDiscount struct {
	code       string
	percentage int
	expiresIn  time.Duration
	typeNames  []string // empty means all ticket types
}

var seedDiscounts = []seedDiscount{
	{code: "SUMMER10", percentage: 10, expiresIn: 90 * 24 * time.Hour},
	{code: "FAMILY20", percentage: 20, expiresIn: 90 * 24 * time.Hour, typeNames: []string{"CHILD", "SENIOR"}},
	{code: "VIPHALF", percentage: 50, expiresIn: 30 * 24 * time.Hour, typeNames: []string{"VIP"}},
	{code: "EXPIRED5", percentage: 5, expiresIn: -24 * time.Hour},
}

func main() {
	var (
		databaseURL string
		ticketsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&ticketsFile, "tickets-file", "db/seed/ticket_types.json", "path to ticket types JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, ticketsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, ticketsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	ticketRepo := postgres.NewTicketRepository(pool)
	discountRepo := postgres.NewDiscountRepository(pool)

	if err := seedTicketTypes(ctx, ticketRepo, ticketsFile); err != nil {
		return errors.Wrap(err, "seed ticket types")
	}

	if err := seedDiscountCodes(ctx, ticketRepo, discountRepo); err != nil {
		return errors.Wrap(err, "seed discounts")
	}

	return nil
}

func seedTicketTypes(ctx context.Context, repo *postgres.TicketRepository, ticketsFile string) error {
	slog.Info("reading ticket types file", slog.String("path", ticketsFile))

	data, err := os.ReadFile(ticketsFile)
	if err != nil {
		return errors.Wrap(err, "read ticket types file")
	}

	var types []ticketTypeJSON
	if err := json.Unmarshal(data, &types); err != nil {
		return errors.Wrap(err, "parse ticket types JSON")
	}

	slog.Info("upserting ticket types", slog.Int("count", len(types)))

	for _, t := range types {
		tt := &ticket.Type{
			ID:          uuid.NewString(),
			TypeName:    t.TypeName,
			Description: t.Description,
			Cost:        t.Cost,
			Currency:    t.Currency,
			MaxPerDay:   t.MaxPerDay,
			PhotoURL:    t.PhotoURL,
		}
		if err := repo.Upsert(ctx, tt); err != nil {
			return errors.Wrapf(err, "upsert ticket type %s", t.TypeName)
		}

		slog.Info("upserted ticket type", slog.String("name", t.TypeName), slog.Int("max_per_day", t.MaxPerDay))
	}

	return nil
}

func seedDiscountCodes(ctx context.Context, tickets *postgres.TicketRepository, discounts *postgres.DiscountRepository) error {
	slog.Info("seeding demo discount codes")

	catalog, err := tickets.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list ticket types")
	}
	idByName := make(map[string]string, len(catalog))
	allIDs := make([]string, 0, len(catalog))
	for _, tt := range catalog {
		idByName[tt.TypeName] = tt.ID
		allIDs = append(allIDs, tt.ID)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, sd := range seedDiscounts {
		ids := allIDs
		if len(sd.typeNames) > 0 {
			ids = ids[:0:0]
			for _, name := range sd.typeNames {
				id, ok := idByName[name]
				if !ok {
					slog.Warn("skipping unknown ticket type for discount",
						slog.String("code", sd.code), slog.String("type", name))
					continue
				}
				ids = append(ids, id)
			}
		}

		d := &discount.Discount{
			ID:         uuid.NewString(),
			Code:       sd.code,
			Percentage: sd.percentage,
			ExpiryDate: today.Add(sd.expiresIn),
		}
		if err := discounts.CreateWithTypes(ctx, d, ids); err != nil {
			return errors.Wrapf(err, "upsert discount %s", sd.code)
		}

		slog.Info("upserted discount", slog.String("code", sd.code), slog.Int("percentage", sd.percentage))
	}

	return nil
}
