// Command vrpserver starts the HTTP binding around the solver core
// (internal/vrpserver), the same role the teacher's cmd/server plays for
// ride-home-router: a small main that wires a Config from flags, builds
// the Server, and runs it until the process receives an interrupt.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryanbinazir/vrpsolve/internal/rundb"
	"github.com/aryanbinazir/vrpsolve/internal/vrpserver"
)

const shutdownTimeout = 5 * time.Second

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "HTTP listen address")
	dbPath := flag.String("db", rundb.DefaultDBFileName, "path to the run-history SQLite database")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := vrpserver.New(vrpserver.Config{Addr: *addr, DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[VRPSERVER] fatal: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("[VRPSERVER] fatal: %v", err)
		}
	case <-ctx.Done():
		log.Printf("[VRPSERVER] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[VRPSERVER] shutdown error: %v", err)
		}
	}
}
