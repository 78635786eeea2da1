package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/config"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/repository"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/service"
)

func main() {
	log.Println("Starting loan delinquency scheduler...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	repaymentRepo := repository.NewRepaymentRepository(db)
	transactor := repository.NewTransactor(db)
	loanService := service.NewLoanService(loanRepo, repaymentRepo, transactor, redisClient, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone: %v", err)
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Daily sweep: default active loans that crossed the delinquency
	// threshold.
	_, err = c.AddFunc(cfg.Scheduler.DelinquencySpec, func() {
		log.Println("Running delinquency sweep...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		defaulted, err := loanService.FlagDelinquentLoans(ctx)
		if err != nil {
			log.Printf("Delinquency sweep finished with errors: %v", err)
		}
		log.Printf("Delinquency sweep done, %d loan(s) marked defaulted", defaulted)
	})
	if err != nil {
		log.Fatalf("Error scheduling delinquency sweep: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}
