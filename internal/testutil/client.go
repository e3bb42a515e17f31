package testutil

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/nickeddy/uamud/internal/protocol"
)

// Client is a wire-protocol test client for integration testing.
type Client struct {
	conn net.Conn
	enc  *protocol.Encoder
	dec  *protocol.Decoder
}

// Dial connects to a running game server.
//
// Postcondition: Returns a connected client, or fails the test. The
// connection closes automatically on test cleanup.
func Dial(t *testing.T, addr string) *Client {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dialing %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &Client{
		conn: conn,
		enc:  protocol.NewEncoder(conn),
		dec:  protocol.NewDecoder(conn),
	}
}

// Send writes one typed frame.
func (c *Client) Send(t *testing.T, msgType protocol.MessageType, payload any) {
	t.Helper()
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("encoding %s: %v", msgType, err)
	}
	if err := c.enc.Encode(msg); err != nil {
		t.Fatalf("sending %s: %v", msgType, err)
	}
}

// Recv reads the next frame, failing the test after the timeout.
func (c *Client) Recv(t *testing.T, timeout time.Duration) protocol.Message {
	t.Helper()
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("setting read deadline: %v", err)
	}
	msg, err := c.dec.Decode()
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	return msg
}

// RecvType reads frames until one of the wanted type arrives, failing the
// test if the per-frame timeout elapses first. Interleaved pushes (stats,
// font updates, broadcasts) are skipped.
func (c *Client) RecvType(t *testing.T, want protocol.MessageType, timeout time.Duration) protocol.Message {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("no %s frame within %s", want, timeout)
		}
		msg := c.Recv(t, remaining)
		if msg.Type == want {
			return msg
		}
	}
}

// Command sends one player command line.
func (c *Client) Command(t *testing.T, line string) {
	t.Helper()
	c.Send(t, protocol.TypeCommand, protocol.Command{Text: line})
}

// Close shuts the connection down immediately.
func (c *Client) Close() error {
	return c.conn.Close()
}

// String describes the client's local endpoint, for test logs.
func (c *Client) String() string {
	return fmt.Sprintf("client[%s]", c.conn.LocalAddr())
}
