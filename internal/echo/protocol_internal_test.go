package echo

import (
	"net"
	"testing"
)

func TestDetectProtocol(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  protocolType
	}{
		{name: "websocket upgrade", input: "GET /ws HTTP/1.1\r\n", want: protocolHTTP},
		{name: "post request", input: "POST / HTTP/1.1\r\n", want: protocolHTTP},
		{name: "greeting", input: "Hello!", want: protocolTCP},
		{name: "short payload", input: "H\n", want: protocolTCP},
		{name: "lowercase method", input: "get / HTTP/1.1\r\n", want: protocolTCP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := net.Pipe()
			defer server.Close()
			defer client.Close()

			go client.Write([]byte(tt.input))

			got, reader, err := detectProtocol(server)
			if err != nil {
				t.Fatalf("detectProtocol() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("detectProtocol() = %v, want %v", got, tt.want)
			}

			// Peeked bytes stay readable.
			head, err := reader.Peek(1)
			if err != nil {
				t.Fatalf("Peek() error = %v", err)
			}
			if head[0] != tt.input[0] {
				t.Errorf("first byte = %q, want %q", head[0], tt.input[0])
			}
		})
	}
}

func TestDetectProtocol_ClosedBeforeData(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	client.Close()

	if _, _, err := detectProtocol(server); err == nil {
		t.Error("expected error for connection closed before any data")
	}
}
