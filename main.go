package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/EmpoweredVote/canvass/internal/addresses"
	"github.com/EmpoweredVote/canvass/internal/backup"
	"github.com/EmpoweredVote/canvass/internal/canvass"
	"github.com/EmpoweredVote/canvass/internal/config"
	"github.com/EmpoweredVote/canvass/internal/db"
	"github.com/EmpoweredVote/canvass/internal/geo"
	"github.com/EmpoweredVote/canvass/internal/geo/geocoding"
	"github.com/EmpoweredVote/canvass/internal/logging"
	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/EmpoweredVote/canvass/internal/notes"
	"github.com/EmpoweredVote/canvass/internal/precincts"
	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/EmpoweredVote/canvass/internal/reference"
	"github.com/EmpoweredVote/canvass/internal/scheduler"
	"github.com/EmpoweredVote/canvass/internal/volunteers"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	campaign, err := config.LoadCampaign(cfg.CampaignPath)
	if err != nil {
		log.Fatalf("campaign: %v", err)
	}

	if err := db.Connect(cfg); err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := volunteers.Init(); err != nil {
		log.Fatalf("volunteers: %v", err)
	}
	if err := notes.Init(db.DB); err != nil {
		log.Fatalf("notes: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := precincts.OpenStore(ctx, cfg, db.DB)
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

	locator, err := newLocator(ctx, cfg)
	if err != nil {
		log.Fatalf("locator: %v", err)
	}
	source, err := newAddressSource(cfg, campaign, locator)
	if err != nil {
		log.Fatalf("addresses: %v", err)
	}

	noteRepo := notes.NewRepository(db.DB)
	manager := canvass.NewManager(source, noteRepo, cfg.SessionIdleTTL)

	var jobs []*scheduler.Scheduler
	jobs = append(jobs, scheduler.New("canvass-sweep", manager.SweepJob, time.Minute))
	if cfg.BackupEnabled() {
		job, err := newBackupJob(ctx, cfg, store)
		if err != nil {
			log.Fatalf("backup: %v", err)
		}
		jobs = append(jobs, job)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := recordstore.RegisterMetrics(reg); err != nil {
		log.Fatalf("metrics: %v", err)
	}
	if err := middleware.RegisterMetrics(reg); err != nil {
		log.Fatalf("metrics: %v", err)
	}
	reg.MustRegister(manager.Collector())

	sessions := volunteers.SessionInfo{}
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.Metrics)
	r.Get("/", RootHandler)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Mount("/volunteers", volunteers.SetupRoutes(manager.End, cfg.CoordinatorEmails...))
	r.Mount("/precincts", precincts.SetupRoutes(precincts.Options{
		Store:    store,
		Locator:  locator,
		Sessions: sessions,
		Limiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Timeout:  cfg.RequestTimeout,
	}))
	r.Mount("/canvass", canvass.SetupRoutes(manager, sessions))
	r.Mount("/notes", notes.SetupRoutes(noteRepo, sessions, campaign.QuickTags))
	r.Mount("/reference", reference.SetupRoutes(tables))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j *scheduler.Scheduler) {
			defer wg.Done()
			j.Start(ctx)
		}(j)
	}

	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "campaign": campaign.Name}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	for _, j := range jobs {
		j.Stop()
	}
	wg.Wait()
}

// newLocator uses PostGIS boundaries on postgres, importing BOUNDARIES_PATH
// first when set. On sqlite the file is held in memory; without one,
// addresses fall back to sample walk lists.
func newLocator(ctx context.Context, cfg config.Config) (geo.Locator, error) {
	var features []geo.BoundaryFeature
	if cfg.BoundariesPath != "" {
		var err error
		features, err = geo.ReadBoundariesFile(cfg.BoundariesPath, cfg.BoundaryIDProperty, cfg.BoundaryNameProperty)
		if err != nil {
			return nil, err
		}
	}

	if cfg.DBDriver != config.DriverPostgres {
		if len(features) == 0 {
			return nil, nil
		}
		l, err := geo.NewStaticLocatorFromFeatures(features)
		if err != nil {
			return nil, err
		}
		log.WithField("precincts", len(features)).Info("loaded precinct boundaries into memory")
		return l, nil
	}

	l := geo.NewPostGISLocator(db.DB)
	if err := l.Migrate(ctx); err != nil {
		return nil, err
	}
	if len(features) > 0 {
		n, err := l.ImportBoundaries(ctx, features, filepath.Base(cfg.BoundariesPath))
		if err != nil {
			return nil, err
		}
		log.WithField("precincts", n).Info("imported precinct boundaries")
	}
	return l, nil
}

func newAddressSource(cfg config.Config, campaign config.Campaign, locator geo.Locator) (*addresses.Source, error) {
	var roll []addresses.Address
	if cfg.VoterRollPath != "" {
		var err error
		if roll, err = addresses.LoadVoterRoll(cfg.VoterRollPath); err != nil {
			return nil, err
		}
	}

	opts := []addresses.SourceOption{addresses.WithCap(campaign.AddressCap)}
	if gc := geocoding.NewClient(cfg.GoogleMapsAPIKey); gc != nil {
		opts = append(opts, addresses.WithGeocoder(gc))
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set, addresses without coordinates are skipped")
	}
	return addresses.NewSource(roll, locator, opts...), nil
}

func newBackupJob(ctx context.Context, cfg config.Config, store *recordstore.Store) (*scheduler.Scheduler, error) {
	client, err := backup.NewClient(ctx, backup.ClientConfig{
		Region:   cfg.BackupRegion,
		Endpoint: cfg.BackupEndpoint,
	})
	if err != nil {
		return nil, err
	}
	b, err := backup.New(client, cfg.BackupBucket, "precincts", store)
	if err != nil {
		return nil, err
	}
	return scheduler.New("precinct-backup", b.Run, cfg.BackupInterval), nil
}
