package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Ammar282828/gemstrack-pos-sub002/config"
	_ "github.com/Ammar282828/gemstrack-pos-sub002/docs"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/adminapi"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/app"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the database, then exit")
	migrate  = flag.Bool("migrate", false, "migrate the database schema, then exit")
	printcfg = flag.Bool("printcfg", false, "print the effective config as yaml")
)

func main() {
	flag.Parse()
	cfg := config.LoadConfig(*conffile)

	if *printcfg {
		fmt.Println(cfg.String())
		return
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}
	if *migrate {
		if err := application.MigrateDB(true); err != nil {
			zap.S().Fatalf("migrate failed: %v", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application.StartBackgroundJobs(ctx)

	srv := webserver.Init(cfg, webserver.Options{
		AppContext: application,
		Devices:    application,
		Realtime:   application.Realtime(),
	})
	adminapi.Init()

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalf("admin api stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zap.S().Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("shutdown: %v", err)
	}
}
