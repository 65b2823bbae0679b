package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/omochice/toy-socket-client/internal/transcript"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: transcript file")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open transcript: %v", err)
	}
	defer f.Close()

	r := transcript.NewReader(f)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Fatalf("Failed to read transcript: %v", err)
		}

		text := strings.ToValidUTF8(string(rec.Payload), "�")
		fmt.Printf("%s %-8s %4d bytes: %q\n", rec.Time.Local().Format(time.RFC3339Nano), rec.Direction, len(rec.Payload), text)
	}
}
