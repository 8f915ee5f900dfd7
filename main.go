package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"upkeep/api"
	"upkeep/internal/config"
	"upkeep/internal/database"
	"upkeep/internal/handlers"
	"upkeep/internal/middleware"
	"upkeep/internal/services"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		panic(err)
	}

	// 2. Set up logging
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	// 3. Connect to MongoDB
	client, err := database.ConnectMongoDB(cfg.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to MongoDB")
	}
	defer func() {
		if err = client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("disconnecting from MongoDB")
		}
	}()
	logger.Info().Str("db", cfg.DBName).Msg("connected to MongoDB")

	db := client.Database(cfg.DBName)
	if err := database.EnsureIndexes(db); err != nil {
		logger.Fatal().Err(err).Msg("creating indexes")
	}

	// 4. Initialize services
	taskService := services.NewTaskService(client, db, logger)
	productService := services.NewProductService(client, db, logger)
	calendarService := services.NewCalendarService(db, logger)

	// 5. Initialize handlers
	taskHandler := handlers.NewTaskHandler(taskService)
	productHandler := handlers.NewProductHandler(productService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)

	// 6. Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.JWTSecret))

	// 7. Setup router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	api.SetupRoutes(router, authMiddleware, productHandler, taskHandler, calendarHandler)

	// --- CORS: Allow All Origins ---
	c := cors.AllowAll()
	handlerWithCORS := c.Handler(router)

	// 8. Start HTTP server
	logger.Info().Str("port", cfg.Port).Msg("server starting")
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlerWithCORS,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Str("port", cfg.Port).Msg("server stopped")
	}
}
