package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"sharednotes/internal/api"
	"sharednotes/internal/auth"
	"sharednotes/internal/database"
	"sharednotes/internal/events"
	"sharednotes/internal/notes"
	"sharednotes/internal/utils"
)

func main() {
	logPath := os.Getenv("LOG_FILE")
	if logPath == "" {
		logPath = "app.log"
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalln("Failed to open log file")
	}
	defer func(logFile *os.File) {
		err := logFile.Close()
		if err != nil {
			log.Fatalln("Failed to close log file")
		}
	}(logFile)

	logger := slog.New(slog.NewTextHandler(logFile, nil))

	db := database.NewDatabaseManager()
	err = db.Connect()
	if err != nil {
		logger.Error(fmt.Sprintf("error connecting to database: %v", err.Error()))
		return
	}

	defer func(db *database.Manager) {
		err := db.Close()
		if err != nil {
			logger.Error(fmt.Sprintf("error closing database: %v", err.Error()))
			log.Fatal(fmt.Sprintf("error closing database: %v", err.Error()))
			return
		}
	}(db)

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey == "" {
		logger.Error("No JWT_KEY found in environment")
		return
	}

	tagRegistry := notes.NewTagRegistry(db.DB, logger)
	var seedNames []string
	if raw := os.Getenv("NOTE_TAGS"); raw != "" {
		seedNames = strings.Split(raw, ",")
	}
	if err := tagRegistry.Seed(context.Background(), seedNames); err != nil {
		logger.Error(fmt.Sprintf("error seeding tag catalog: %v", err.Error()))
		return
	}

	redisClient, err := utils.NewRedisClient()
	if err != nil {
		logger.Warn("Redis unavailable, event feed is single-instance", "error", err.Error())
		redisClient = nil
	}

	hub := events.NewHub(logger, redisClient)
	defer hub.Close()

	store := notes.NewStore(db.DB, logger)
	sharing := notes.NewSharingManager(db.DB, logger)

	r := gin.Default()
	r.Use(auth.CORSMiddleware(strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")))

	handler := api.NewHandler(store, sharing, tagRegistry, hub, logger)
	authHandler := auth.NewHandler(db.DB, []byte(jwtKey), logger)
	api.RegisterRoutes(r, handler, authHandler, []byte(jwtKey))

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	err = r.Run(addr)
	if err != nil {
		logger.Error(fmt.Sprintf("error starting server: %v", err.Error()))
		log.Fatal(fmt.Sprintf("error starting server: %v", err.Error()))
	}
}
