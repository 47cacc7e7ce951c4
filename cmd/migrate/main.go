// Command migrate applies the schema to the configured database.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"namethatobject/internal/config"
	"namethatobject/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Connect would migrate on its own outside production; open directly so
	// the command behaves the same in every environment.
	db, err := gorm.Open(database.Dialector(cfg), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Ping(ctx, db); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := database.Migrate(db.WithContext(ctx)); err != nil {
		return err
	}
	log.Printf("schema applied (driver=%s)", cfg.DBDriver)
	return nil
}
