package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omochice/toy-socket-client/internal/command"
	"github.com/omochice/toy-socket-client/internal/input"
	"github.com/omochice/toy-socket-client/internal/queue"
	"github.com/omochice/toy-socket-client/internal/session"
	"github.com/omochice/toy-socket-client/internal/transcript"
	"github.com/omochice/toy-socket-client/internal/transport"
)

func main() {
	// Parse command-line flags
	kind := flag.String("transport", string(transport.KindTCP), "Transport to use (tcp or ws)")
	path := flag.String("path", "/ws", "WebSocket request path")
	interval := flag.Duration("interval", session.DefaultInterval, "Idle delay between loop iterations")
	timeout := flag.Duration("timeout", 10*time.Second, "Connection timeout")
	record := flag.String("record", "", "Write a transcript of sent and received payloads to this file")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: client [flags] ip port")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		return
	}
	ip, port := flag.Arg(0), flag.Arg(1)

	transportKind, err := transport.ParseKind(*kind)
	if err != nil {
		log.Fatalf("Invalid -transport: %v", err)
	}

	fmt.Println("TCP Client")
	fmt.Println("~~~~~~~~~~")
	fmt.Println()
	fmt.Printf("IP: %s\n", ip)
	fmt.Printf("Port: %s\n", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := transport.Dial(ctx, net.JoinHostPort(ip, port), transport.Options{
		Kind:    transportKind,
		Path:    *path,
		Timeout: *timeout,
	})
	if err != nil {
		fmt.Printf("Failed to connect to server. Error: %v\n", err)
		fmt.Println("[Client] Quitting")
		return
	}
	fmt.Printf("[Client] Connected to server at %s:%s\n", ip, port)

	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg := session.DefaultConfig()
	cfg.Interval = *interval
	cfg.Logger = logger

	if *record != "" {
		f, err := os.Create(*record)
		if err != nil {
			conn.Close()
			log.Fatalf("Failed to create transcript: %v", err)
		}
		defer f.Close()
		cfg.Transcript = transcript.NewWriter(f)
	}

	q := queue.New()
	producer := input.NewProducer(os.Stdin, q, logger)
	producerDone := producer.Start(ctx)

	for _, line := range command.Help() {
		fmt.Println(line)
	}

	err = session.New(conn, q, cfg).Run(ctx)
	switch {
	case errors.Is(err, session.ErrInputClosed):
		log.Fatalf("Input channel disconnected: %v", inputFailure(err, producerDone, time.Second))
	case errors.Is(err, context.Canceled):
		log.Println("Interrupted")
	case err != nil:
		log.Fatalf("Client error: %v", err)
	}

	fmt.Println("[Client] Quitting")
}

// inputFailure attaches the producer's exit reason to err when the producer
// reports one within wait.
func inputFailure(err error, producerDone <-chan error, wait time.Duration) error {
	select {
	case cause := <-producerDone:
		if cause != nil {
			return fmt.Errorf("%w: %w", err, cause)
		}
	case <-time.After(wait):
	}
	return err
}
