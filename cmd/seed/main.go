package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

var locations = []string{"Window", "Patio", "Main hall", "Bar"}

func main() {
	diners := flag.Int("diners", 10, "number of diners to create")
	tables := flag.Int("tables", 8, "number of tables to create")
	days := flag.Int("days", 3, "days ahead to fill with reservations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	closeLog, err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, LogFile: cfg.LogFile})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise logger")
	}
	defer func() { _ = closeLog() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	dinerRepo := repository.NewDinerRepo(db)
	tableRepo := repository.NewTableRepo(db)
	s := seeder{
		diners:       service.NewDinerService(dinerRepo),
		tables:       service.NewTableService(tableRepo),
		reservations: service.NewReservationService(repository.NewReservationRepo(db), dinerRepo, tableRepo),
	}

	dinerList := s.seedDiners(ctx, *diners)
	tableList := s.seedTables(ctx, *tables)
	n := s.seedReservations(ctx, dinerList, tableList, *days)
	log.Info().Int("diners", len(dinerList)).Int("tables", len(tableList)).Int("reservations", n).Msg("seed complete")
}

type seeder struct {
	diners       *service.DinerService
	tables       *service.TableService
	reservations *service.ReservationService
}

// seedDiners creates n diners.  Records left by an earlier run are
// reported as conflicts and skipped.
func (s seeder) seedDiners(ctx context.Context, n int) []*model.Diner {
	var out []*model.Diner
	for i := 1; i <= n; i++ {
		phone := fmt.Sprintf("+1555%07d", i)
		d, err := s.diners.Create(ctx, service.DinerInput{
			Name:  fmt.Sprintf("Guest %d", i),
			Email: fmt.Sprintf("guest%d@example.com", i),
			Phone: &phone,
		})
		if err != nil {
			skipOrFail(err, "diner", i)
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s seeder) seedTables(ctx context.Context, n int) []*model.Table {
	var out []*model.Table
	for i := 1; i <= n; i++ {
		loc := locations[i%len(locations)]
		t, err := s.tables.Create(ctx, service.TableInput{
			TableNumber: fmt.Sprintf("T%02d", i),
			Capacity:    2 + (i%4)*2,
			Location:    &loc,
		})
		if err != nil {
			skipOrFail(err, "table", i)
			continue
		}
		out = append(out, t)
	}
	return out
}

// seedReservations books every table for dinner on each of the next days,
// rotating through diners.  Slot collisions with existing data are
// skipped.
func (s seeder) seedReservations(ctx context.Context, diners []*model.Diner, tables []*model.Table, days int) int {
	if len(diners) == 0 || len(tables) == 0 {
		return 0
	}
	created := 0
	start := time.Now().UTC().AddDate(0, 0, 1)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format(model.DateLayout)
		for i, t := range tables {
			diner := diners[(d*len(tables)+i)%len(diners)]
			_, err := s.reservations.Create(ctx, service.ReservationInput{
				Date:      date,
				Time:      "19:00",
				PartySize: t.Capacity,
				DinerID:   diner.ID,
				TableID:   t.ID,
			})
			if err != nil {
				skipOrFail(err, "reservation", created+1)
				continue
			}
			created++
		}
	}
	return created
}

func skipOrFail(err error, what string, n int) {
	if service.KindOf(err) == service.KindConflict {
		log.Debug().Str("kind", what).Int("n", n).Msg("already present, skipped")
		return
	}
	log.Fatal().Err(err).Str("kind", what).Int("n", n).Msg("seed failed")
}
