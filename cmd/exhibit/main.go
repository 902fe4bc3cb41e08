// exhibit: museum exhibit station host.
// Serves the headset page and dashboard, bridges the headset over WebSocket,
// and runs the placement controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/exhibitxr/go-exhibit/internal/config"
	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/assets"
	"github.com/exhibitxr/go-exhibit/pkg/exhibit"
	"github.com/exhibitxr/go-exhibit/pkg/headset"
	"github.com/exhibitxr/go-exhibit/pkg/session"
	"github.com/exhibitxr/go-exhibit/pkg/web"
)

var version = "1.0.0"

func main() {
	addr := flag.String("addr", config.DefaultListenAddr, "HTTP listen address")
	manifestPath := flag.String("manifest", config.DefaultManifestPath, "exhibit manifest YAML")
	staticDir := flag.String("static", "./static", "headset page and dashboard assets")
	flag.Parse()

	log.Init(config.LogLevel())

	listen := config.ListenAddr(*addr)
	path := config.ManifestPath(*manifestPath)

	manifest, err := assets.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Error("manifest rejected", "path", path, "error", err)
			os.Exit(1)
		}
		log.Warn("manifest not found, using the embedded sample", "path", path)
		manifest, err = assets.LoadDefault()
		if err != nil {
			log.Error("embedded manifest broken", "error", err)
			os.Exit(1)
		}
	}

	fmt.Println("Exhibit Station v" + version)
	fmt.Printf("   Exhibit:  %s\n", manifest.Name)
	fmt.Printf("   Listen:   %s\n", listen)
	fmt.Printf("   Headset:  ws://<host>%s/ws/headset\n", listen)
	fmt.Println()

	srv := web.NewServer(listen, *staticDir)
	bridge := headset.NewBridge()
	bridge.RegisterRoutes(srv.App())
	bridge.RegisterAPIRoutes(srv.API())

	sessCfg := session.DefaultConfig()
	sessCfg.RetryDelay = config.EnvDuration("EXHIBIT_RETRY_DELAY", sessCfg.RetryDelay)
	sessCfg.TeardownGrace = config.EnvDuration("EXHIBIT_TEARDOWN_GRACE", sessCfg.TeardownGrace)
	sessCfg.RequestTimeout = config.EnvDuration("EXHIBIT_REQUEST_TIMEOUT", sessCfg.RequestTimeout)

	ctrl := exhibit.NewController(bridge, srv, manifest, sessCfg)
	srv.OnStart = ctrl.RequestStart
	srv.OnEnd = ctrl.RequestEnd

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	srv.StartAsync()

	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("controller stopped", "error", err)
	}

	if err := srv.Shutdown(); err != nil {
		log.Warn("shutdown error", "error", err)
	}
}
