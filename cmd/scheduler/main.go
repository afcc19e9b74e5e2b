package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/config"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/repository"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	loanRepo := repository.NewLoanRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	txRunner := repository.NewTxRunner(db)
	loanService := service.NewLoanService(loanRepo, installmentRepo, txRunner, nil, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("Invalid scheduler timezone")
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	_, err = c.AddFunc(cfg.Scheduler.OverdueCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := loanService.MarkOverdueInstallments(ctx, time.Now().In(location))
		if err != nil {
			log.Error().Err(err).Msg("Overdue sweep failed")
			return
		}
		log.Info().Int64("installments", count).Msg("Overdue sweep completed")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule overdue sweep")
	}

	c.Start()
	log.Info().Str("cron", cfg.Scheduler.OverdueCron).Msg("Scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}
