// Package tcp is the client transport: it accepts TCP connections, frames
// them with the JSON wire codec, and feeds decoded messages into the game
// engine one at a time per connection.
package tcp

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nickeddy/uamud/internal/protocol"
)

// Conn wraps a TCP connection with the wire codec and per-operation
// deadlines. Send is safe for concurrent use; Receive belongs to the single
// read loop.
type Conn struct {
	raw net.Conn
	dec *protocol.Decoder

	mu  sync.Mutex
	enc *protocol.Encoder

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection.
//
// Precondition: raw must be a valid, open network connection.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		dec:          protocol.NewDecoder(raw),
		enc:          protocol.NewEncoder(raw),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Send writes one frame to the client.
func (c *Conn) Send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("setting write deadline: %w", err)
		}
	}
	return c.enc.Encode(msg)
}

// Receive reads the next frame from the client. Returns io.EOF on a clean
// close.
func (c *Conn) Receive() (protocol.Message, error) {
	if c.readTimeout > 0 {
		if err := c.raw.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return protocol.Message{}, fmt.Errorf("setting read deadline: %w", err)
		}
	}
	return c.dec.Decode()
}

// Close shuts the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's IP address, without the port.
func (c *Conn) RemoteAddr() string {
	addr := c.raw.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
