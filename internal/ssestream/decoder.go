package ssestream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

const (
	dataMarker = "data:"
	readSize   = 4096
)

// Decoder is a pull iterator over a framed event stream.
type Decoder struct {
	r         io.Reader
	buf       []byte
	carry     []byte
	pending   []Event
	eof       bool
	malformed int
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, readSize)}
}

// Next returns the next event. It returns io.EOF once the stream is drained.
func (d *Decoder) Next() (Event, error) {
	for {
		if len(d.pending) > 0 {
			evt := d.pending[0]
			d.pending = d.pending[1:]
			return evt, nil
		}
		if d.eof {
			return Event{}, io.EOF
		}
		n, err := d.r.Read(d.buf)
		if n > 0 {
			d.feed(d.buf[:n])
		}
		if errors.Is(err, io.EOF) {
			d.eof = true
			if len(d.carry) > 0 {
				d.decodeLine(d.carry)
				d.carry = nil
			}
			continue
		}
		if err != nil {
			return Event{}, err
		}
	}
}

// Malformed reports how many data lines failed to decode.
func (d *Decoder) Malformed() int {
	return d.malformed
}

func (d *Decoder) feed(chunk []byte) {
	d.carry = append(d.carry, chunk...)
	for {
		idx := bytes.IndexByte(d.carry, '\n')
		if idx < 0 {
			return
		}
		line := d.carry[:idx]
		d.decodeLine(line)
		d.carry = d.carry[idx+1:]
	}
}

func (d *Decoder) decodeLine(line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if !bytes.HasPrefix(line, []byte(dataMarker)) {
		return
	}
	payload := bytes.TrimSpace(line[len(dataMarker):])
	if len(payload) == 0 {
		return
	}
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		d.malformed++
		return
	}
	evt.Raw = append(json.RawMessage(nil), payload...)
	d.pending = append(d.pending, evt)
}

// ErrStop ends Consume early without reporting an error.
var ErrStop = errors.New("stop consuming stream")

// Consume decodes body and calls fn for every event until the stream ends,
// fn returns an error, or ctx is cancelled. The body is closed on every path.
// Returning ErrStop from fn stops cleanly.
func Consume(ctx context.Context, body io.ReadCloser, fn func(Event) error) (Stats, error) {
	defer body.Close()

	dec := NewDecoder(body)
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			stats.Malformed = dec.Malformed()
			return stats, err
		}
		evt, err := dec.Next()
		if errors.Is(err, io.EOF) {
			stats.Malformed = dec.Malformed()
			return stats, nil
		}
		if err != nil {
			stats.Malformed = dec.Malformed()
			return stats, err
		}
		stats.Events++
		if cbErr := fn(evt); cbErr != nil {
			stats.Malformed = dec.Malformed()
			stats.Stopped = true
			if errors.Is(cbErr, ErrStop) {
				return stats, nil
			}
			return stats, cbErr
		}
	}
}

// Stats summarizes a Consume call.
type Stats struct {
	Events    int
	Malformed int
	Stopped   bool
}
