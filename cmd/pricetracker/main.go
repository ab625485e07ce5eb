package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/denwilliams/pricetracker/config"
	"github.com/denwilliams/pricetracker/internal/app"
)

var (
	h        = flag.Bool("h", false, "help usage")
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, exit")
	track    = flag.String("track", "", "track a product URL and exit")
	target   = flag.Float64("target", 0, "target price for -track")
	selector = flag.String("selector", "", "css price selector override for -track")
)

func printHelp() {
	if *h {
		fmt.Fprintln(os.Stderr, "pricetracker usage: pricetracker -h\nOptions:")
		flag.PrintDefaults()
		os.Exit(0)
	}
}

func main() {
	flag.Parse()
	printHelp()

	_ = godotenv.Load()

	cfg := config.LoadConfig(*conffile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	if *track != "" {
		var tp *float64
		if *target > 0 {
			tp = target
		}
		m, err := application.MonitorService().Track(*track, tp, *selector)
		if err != nil {
			zap.S().Fatalf("track failed: %v", err)
		}
		zap.S().Infof("tracking %s (id=%d)", m.URL, m.ID)
		return
	}

	zap.S().Info("pricetracker started")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc
	zap.S().Info("pricetracker shutdown")
}
