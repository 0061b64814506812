package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pricetrack/pricetrack/config"
	"github.com/pricetrack/pricetrack/internal/app"
	"github.com/pricetrack/pricetrack/internal/webapi"
)

var (
	h        = flag.Bool("h", false, "help usage")
	conffile = flag.String("c", "", "config file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the database schema")
)

func printHelp() {
	if *h {
		fmt.Fprintf(os.Stderr, "pricetrackd usage: pricetrackd -h\n")
		flag.PrintDefaults()
		os.Exit(0)
	}
}

func main() {
	flag.Parse()
	printHelp()

	cfg := config.LoadConfig(*conffile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application := app.NewApplication(cfg)
	if err := application.Init(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "application init failed: %v\n", err)
		os.Exit(1)
	}
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	errchan := make(chan error, 1)
	go func() {
		errchan <- webapi.NewServer(application).Start()
	}()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errchan:
		zap.L().Error("web server stopped", zap.Error(err))
	case sig := <-sigchan:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
	}
}
