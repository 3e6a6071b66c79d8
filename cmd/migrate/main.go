package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"board-service/internal/config"
	"board-service/internal/repository/postgres"
	"board-service/pkg/logger"
)

const (
	envFilePath    = ".env"
	migrateTimeout = 2 * time.Minute
)

func main() {
	envErr := godotenv.Load(envFilePath)

	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if envErr != nil {
		log.Info(".env file not found, using environment variables")
	}

	if err := run(log); err != nil {
		log.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	dbConfig := config.LoadDatabase()
	db, err := postgres.New(&dbConfig)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to database", slog.String("host", dbConfig.Host), slog.String("database", dbConfig.Database))

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := postgres.Migrate(ctx, db.SQL); err != nil {
		return err
	}
	log.Info("schema applied")

	missing, err := postgres.MissingTables(ctx, db.SQL)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("tables not created: %s", strings.Join(missing, ", "))
	}
	log.Info("tables verified", slog.Int("count", len(postgres.Tables)))
	return nil
}
