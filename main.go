package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"hat-store/internal/api"
	"hat-store/internal/config"
	"hat-store/internal/database"
	"hat-store/internal/models"
	"hat-store/internal/services/partner"
	"hat-store/internal/services/remote"
	"hat-store/internal/services/trading"
	"hat-store/internal/store"
	"hat-store/internal/websocket"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg := config.Load()

	// Initialize the transaction database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Load (or bootstrap) the catalog and funds documents
	st, err := store.Open(cfg.StorageFile, cfg.FundsFile)
	if err != nil {
		logrus.Fatalf("Failed to open store: %v", err)
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Initialize services
	partnerClient := partner.NewClient(cfg.PartnerURL, cfg.Team)
	remoteCache := remote.NewCache()
	tradingService := trading.NewService(st, db, partnerClient, remoteCache, wsHub, cfg.Team, cfg.PartnerName)

	pollerCfg := remote.DefaultConfig()
	pollerCfg.Interval = cfg.PollInterval
	poller := remote.NewPoller(pollerCfg, partnerClient, remoteCache, wsHub, cfg.PartnerName)
	if err := poller.Start(); err != nil {
		logrus.Fatalf("Failed to start poller: %v", err)
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Static assets
	r.Static("/images", cfg.ImagesDir)

	// API routes
	api.SetupRoutes(r, st, tradingService, remoteCache)

	// WebSocket endpoint: full state snapshot on connect, then live
	// broadcasts
	snapshot := func() models.Event {
		products, funds := st.Snapshot()
		f := funds
		return models.Event{
			Type:     models.EventConnect,
			Products: products,
			Remote:   remoteCache.Snapshot(),
			Funds:    &f,
		}
	}
	r.GET("/ws", websocket.HandleWebSocket(wsHub, snapshot, tradingService))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	logrus.WithFields(logrus.Fields{
		"team":    cfg.Team,
		"port":    cfg.Port,
		"partner": cfg.PartnerURL,
	}).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
