package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/google/subcommands"

	"github.com/mmynk/splitledger/internal/cli"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/pkg/logging"
)

var (
	envFile  = flag.String("env", ".env", "Path to an optional .env file")
	dbPath   = flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	currency = flag.String("currency", "", "Currency used to print amounts (overrides CURRENCY)")
	verbose  = flag.Bool("v", false, "Log ledger operations to stderr")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	flag.Parse()

	cfg := config.Load(*envFile)
	if *dbPath != "" {
		cfg.DBDriver = config.DriverSQLite
		cfg.DBPath = *dbPath
	}
	if *currency != "" {
		cfg.Currency = strings.ToUpper(*currency)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitUsageError))
	}

	level := logging.ParseLevel("warn")
	if *verbose {
		level = logging.ParseLevel(cfg.LogLevel)
	}
	logging.SetupWithLevel(level)

	cli.Register(commander, cli.NewApp(cfg, os.Stdout))
	os.Exit(int(commander.Execute(context.Background())))
}
