package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/arguscam/argus/server"
	"github.com/arguscam/argus/server/config"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
)

func main() {
	parser := argparse.NewParser("argus", "Detection analytics server")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Configuration file", Default: "argus.json"})
	port := parser.String("p", "port", &argparse.Options{Help: "HTTP listen address", Default: ":8080"})
	hotReloadWWW := parser.Flag("", "hot", &argparse.Options{Help: "Hot reload www instead of embedding into binary", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	flags := 0
	if *hotReloadWWW {
		flags |= server.ServerFlagHotReloadWWW
	}
	srv, err := server.NewServer(logger, cfg, flags)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Infof("Received signal %v, shutting down", sig)
		srv.Shutdown()
	}()

	// Tell systemd that we're alive
	daemon.SdNotify(false, daemon.SdNotifyReady)

	if err := srv.Run(*port); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
