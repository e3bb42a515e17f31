package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single wire frame. Oversized frames indicate a
// misbehaving client and abort the read.
const MaxFrameSize = 64 * 1024

// Encoder writes newline-delimited message frames.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one frame and flushes it.
func (e *Encoder) Encode(msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if _, err := e.w.Write(raw); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing frame delimiter: %w", err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("flushing frame: %w", err)
	}
	return nil
}

// Decoder reads newline-delimited message frames.
type Decoder struct {
	s *bufio.Scanner
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxFrameSize)
	return &Decoder{s: s}
}

// Decode reads the next frame. It returns io.EOF when the stream ends
// cleanly between frames.
func (d *Decoder) Decode() (Message, error) {
	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return Message{}, fmt.Errorf("reading frame: %w", err)
		}
		return Message{}, io.EOF
	}
	var msg Message
	if err := json.Unmarshal(d.s.Bytes(), &msg); err != nil {
		return Message{}, fmt.Errorf("decoding frame: %w", err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("frame missing type tag")
	}
	return msg, nil
}
