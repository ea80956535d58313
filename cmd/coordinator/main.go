package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hkakutalua/mapreduce-coordinator/internal/app"
	"github.com/hkakutalua/mapreduce-coordinator/internal/coordinator"
)

func main() {
	address := flag.String("addr", "localhost:8030", "address to listen on")
	heartbeatTimeout := flag.Duration("heartbeat-timeout", coordinator.DefaultHeartbeatTimeout,
		"silence after which a worker is considered dead")
	extraApps := flag.String("apps", "", "comma separated app names accepted besides the built-in ones")
	flag.Parse()

	registry := app.NewRegistry(app.ParseList(*extraApps)...)
	state := coordinator.NewCoordinatorState(registry, *heartbeatTimeout)

	server, err := coordinator.NewServer(coordinator.NewCoordinator(state))
	if err != nil {
		log.Fatalf("could not register coordinator service: %v", err)
	}

	if err := server.Start(*address); err != nil {
		log.Fatalf("listen error: %v", err)
	}

	log.Printf("coordinator %v listening on %v (heartbeat timeout %v, apps %v)",
		state.SessionId, server.Address(), state.HeartbeatTimeout, registry.Names())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	log.Printf("shutting down")
	server.Stop()
}
