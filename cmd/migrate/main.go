package main

import (
	"flag"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"procurement/db/migrations"
	"procurement/internal/config"
)

func main() {
	dir := flag.String("dir", "./migrations", "migrations directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("info").Fatalf("config: %v", err)
	}
	log := config.NewLogger(cfg.LogLevel)

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	log.Infof("Running migrations from %s", *dir)
	if err := migrations.Run(dbConn.DB, *dir); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Info("Migrations applied")
}
