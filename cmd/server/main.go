package main

import (
	"github.com/sirupsen/logrus"

	_ "workboard/docs"
	"workboard/internal/config"
	"workboard/internal/server"
)

// @title           Workboard API
// @version         1.0
// @description     Department and workspace boards with optimistic task moves.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		logrus.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
