//go:build !lambda
// +build !lambda

package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/apps/api/server"
	"github.com/nexfield/nexfield-api/libs/go/logger"
)

// Local development entrypoint. The deployed binary lives in cmd/lambda.
func main() {
	// A missing .env is fine; deployed stages inject configuration
	// through the environment instead.
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	// Stage validation, logging, the pool, and every handler come up here.
	server.InitializeHandlers()

	router := gin.Default()
	server.InitializeRoutes(router)

	addr := ":" + listenPort()
	logger.Info("Server starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Error starting server", zap.Error(err))
	}
}

func listenPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}
