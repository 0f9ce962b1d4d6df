package main

import (
	"context"

	"github.com/EmpoweredVote/canvass/internal/config"
	"github.com/EmpoweredVote/canvass/internal/db"
	"github.com/EmpoweredVote/canvass/internal/logging"
	"github.com/EmpoweredVote/canvass/internal/precincts"
	"github.com/EmpoweredVote/canvass/internal/reference"
	"github.com/EmpoweredVote/canvass/internal/seeds"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.LogLevel)
	ctx := context.Background()

	var d *gorm.DB
	if cfg.StoreBackend == config.StoreTable {
		if err := db.Connect(cfg); err != nil {
			log.Fatalf("database: %v", err)
		}
		d = db.DB
	}

	store, err := precincts.OpenStore(ctx, cfg, d)
	if err != nil {
		log.Fatalf("precinct store: %v", err)
	}
	tables, err := reference.Loader{
		CensusPath:    cfg.CensusPath,
		ElectionsPath: cfg.ElectionResultsPath,
	}.Load(ctx)
	if err != nil {
		log.Fatalf("reference data: %v", err)
	}

	if err := seeds.SeedAll(ctx, store, tables); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
}
