package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/EmpoweredVote/canvass/internal/config"
	"github.com/EmpoweredVote/canvass/internal/db"
	"github.com/EmpoweredVote/canvass/internal/geo"
	"github.com/EmpoweredVote/canvass/internal/logging"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var (
	path     = flag.String("file", os.Getenv("BOUNDARIES_PATH"), "GeoJSON FeatureCollection of precinct polygons (default: env BOUNDARIES_PATH)")
	idProp   = flag.String("id-prop", "PRECINCT", "Feature property holding the precinct id")
	nameProp = flag.String("name-prop", "NAME", "Feature property holding the precinct name")
	source   = flag.String("source", "", "Source label stored with each boundary (default: file name)")
	dryRun   = flag.Bool("dry-run", false, "Parse and list the boundaries without writing them")
	timeout  = flag.Duration("timeout", 5*time.Minute, "Import timeout")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *path == "" {
		fatalf("--file not provided and BOUNDARIES_PATH not set")
	}

	features, err := geo.ReadBoundariesFile(*path, *idProp, *nameProp)
	if err != nil {
		fatalf("read boundaries: %v", err)
	}
	if *dryRun {
		describe(os.Stdout, features)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	logging.Setup(cfg.LogLevel)
	if cfg.DBDriver != config.DriverPostgres {
		fatalf("boundary import needs DB_DRIVER=postgres; sqlite servers read BOUNDARIES_PATH at startup")
	}
	if err := db.Connect(cfg); err != nil {
		fatalf("database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	l := geo.NewPostGISLocator(db.DB)
	if err := l.Migrate(ctx); err != nil {
		fatalf("migrate: %v", err)
	}
	label := *source
	if label == "" {
		label = filepath.Base(*path)
	}
	n, err := l.ImportBoundaries(ctx, features, label)
	if err != nil {
		fatalf("imported %d of %d boundaries: %v", n, len(features), err)
	}
	log.WithFields(log.Fields{"precincts": n, "source": label}).Info("boundaries imported")
}

func describe(w io.Writer, features []geo.BoundaryFeature) {
	for _, f := range features {
		fmt.Fprintf(w, "%s\t%s\n", f.PrecinctID, f.Name)
	}
	fmt.Fprintf(w, "%d boundaries\n", len(features))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}
