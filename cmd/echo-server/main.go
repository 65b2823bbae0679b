package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/omochice/toy-socket-client/internal/echo"
)

func main() {
	// Parse command-line flags
	port := flag.String("port", ":8080", "Address to listen on for both TCP and WebSocket (e.g., :8080)")
	flag.Parse()

	srv := echo.New(*port, nil)
	if err := srv.Listen(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Echo server stopped")
}
