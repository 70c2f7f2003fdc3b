package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"mediadash/internal/config"
	"mediadash/internal/core/crawl"
	"mediadash/internal/core/dataview"
	"mediadash/internal/core/job"
	"mediadash/internal/core/login"
	"mediadash/internal/logger"
	"mediadash/internal/platform/engine"
	rds "mediadash/internal/platform/redis"
	tasks "mediadash/internal/platform/tasks"
	"mediadash/internal/server"
	"mediadash/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log.Printf("[mediadash] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Asynq client and server. Concurrency caps the background lanes:
	// submissions beyond capacity stay queued until a lane frees.
	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{"default": 1},
	})

	// Crawl engines. Platform internals live outside this process; every
	// platform shares the same external command contract.
	engines := engine.NewRegistry()
	if cfg.EngineCmd != "" {
		for _, p := range engine.Platforms() {
			engines.Register(p, engine.NewExecEngine(cfg.EngineCmd))
		}
	} else {
		logr.LogWarn("ENGINE_CMD not set, submitted jobs will fail until engines are registered")
	}

	// Core services
	store := job.NewStore(cfg.HistoryLimit)
	crawlSvc := crawl.NewService(store, taskClient, engines, cfg)
	sessions := login.NewSessionStore(cfg.CookieDir)
	monitor := login.NewMonitor(cfg, sessions)
	loginSvc := login.NewService(monitor, taskClient)
	dataSvc := dataview.NewService(cfg.DataDir, redisSvc)

	// Worker mux
	mux := worker.NewMux()
	mux.HandleFunc(tasks.TaskTypeScrape, crawlSvc.HandleScrapeTask)
	mux.HandleFunc(tasks.TaskTypeLogin, loginSvc.HandleLoginTask)

	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "MediaDash",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	// Serve scraped result files directly for download links
	app.Static("/files", cfg.DataDir)

	deps := server.Dependencies{
		Store:    store,
		Crawl:    crawlSvc,
		Login:    loginSvc,
		DataView: dataSvc,
		Redis:    redisSvc,
		QRDir:    cfg.QRDir,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	go func() {
		time.Sleep(2 * time.Second)
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
