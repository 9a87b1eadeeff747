// Package main runs the fitcoach MCP server over stdio, for local MCP clients.
// The main service mounts the same server at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/db"
	fitmcp "github.com/2beens/fitcoach/internal/mcp"
	"github.com/2beens/fitcoach/internal/nutrition"
	"github.com/2beens/fitcoach/internal/progress"
	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/internal/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	dotenvPath := flag.String("dotenv", ".env", "optional .env file with secrets")
	flag.Parse()

	// stdout carries the protocol
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	secrets, err := config.LoadSecrets(*dotenvPath)
	if err != nil {
		log.Fatalf("load secrets: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: secrets.PostgresPassword,
		MaxConns:   4,
	})
	if err != nil {
		log.Fatalf("db pool: %s", err)
	}
	defer dbPool.Close()

	server := fitmcp.NewServer(fitmcp.NewContextService(
		fitmcp.NewPoolSchemaRepo(dbPool),
		workouts.NewRepo(dbPool),
		nutrition.NewService(nutrition.NewRepo(dbPool), users.NewRepo(dbPool)),
		progress.NewRepo(dbPool),
	))

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Errorf("mcp server: %s", err)
	}
}
