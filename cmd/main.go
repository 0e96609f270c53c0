package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"annealer_control/internal/daq"
	"annealer_control/internal/engine"
	"annealer_control/internal/handlers"
	"annealer_control/internal/logger"
	"annealer_control/internal/process"
	"annealer_control/internal/repository"
	"annealer_control/internal/server"
	"annealer_control/internal/service"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	_ "annealer_control/docs"
)

const defaultEngineTick = 250 * time.Millisecond

// @title           Annealer Control API
// @version         1.0
// @description     Process control service for an annealing furnace.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// load config.yml
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log_level"))

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(db)

	// thermocouple calibration, reloaded when the file changes
	cal, err := daq.LoadCalibration(viper.GetString("daq.calibration_path"))
	if err != nil {
		log.Fatalw("failed to load calibration", "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watchCalibration(ctx, cal, viper.GetString("daq.calibration_path"), log)

	// DAQ: simulated board behind the real control surface
	ctrl := buildControl(cal)
	if err := ctrl.Initialize(); err != nil {
		log.Fatalw("failed to initialize DAQ", "err", err)
	}
	defer func() {
		if ferr := ctrl.Finalize(); ferr != nil {
			log.Errorw("failed to finalize DAQ", "err", ferr)
		}
	}()

	// execution engine over the startup process
	proc, err := startupProcess(log)
	if err != nil {
		log.Fatalw("failed to load startup process", "err", err)
	}
	tick := viper.GetDuration("engine.tick")
	if tick <= 0 {
		tick = defaultEngineTick
	}
	eng := engine.New(proc, ctrl, tick, repos.Events, log)

	services := service.NewService(repos, eng, log)
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, eng, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "annealer.db")
		dbPath = "annealer.db"
	}
	return repository.Open(dbPath)
}

// buildControl assembles the simulated DAQ board behind the calibrated
// control surface the engine drives.
func buildControl(cal *daq.Calibration) daq.Control {
	viper.SetDefault("sim.ambient_c", daq.DefaultAmbientC)
	viper.SetDefault("sim.heat_rate_c_per_sec", daq.DefaultHeatRateCPerS)
	viper.SetDefault("sim.cool_rate_c_per_sec", daq.DefaultCoolRateCPerS)

	sim := daq.NewSimulator(
		viper.GetFloat64("sim.ambient_c"),
		viper.GetFloat64("sim.heat_rate_c_per_sec"),
		viper.GetFloat64("sim.cool_rate_c_per_sec"),
	)
	return daq.NewAnnealer(sim, cal)
}

// startupProcess loads the configured process file, or starts empty.
func startupProcess(log *logger.Logger) (*process.Process, error) {
	path := viper.GetString("process.path")
	if path == "" {
		return process.New(), nil
	}
	proc, err := process.Load(path)
	if err != nil {
		return nil, err
	}
	log.Infow("startup process loaded", "path", path, "steps", proc.Len())
	return proc, nil
}

// watchCalibration reloads the calibration table when its file changes.
// A reload failure keeps the previous table.
func watchCalibration(ctx context.Context, cal *daq.Calibration, path string, log *logger.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorw("calibration watcher unavailable", "err", err)
		return
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		log.Errorw("cannot watch calibration file", "path", path, "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := cal.Reload(); err != nil {
				log.Errorw("calibration reload failed; keeping previous table", "path", path, "err", err)
				continue
			}
			log.Infow("calibration reloaded", "path", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Errorw("calibration watcher error", "err", err)
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, eng *engine.Engine, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// bring the heater to a safe state before anything else
	if err := eng.Stop(true); err == nil {
		eng.Wait()
	}

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
