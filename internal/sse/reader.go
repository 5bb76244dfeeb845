// Package sse implements the line-oriented framing shared by the chat relay and
// its clients.
package sse

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/strugal/inventory-platform/internal/model"
)

const (
	// Prefix starts every event line.
	Prefix = "data: "

	// DoneSentinel is the provider's end-of-stream payload.
	DoneSentinel = "[DONE]"

	defaultChunkSize = 4096
)

// LineReader splits an incrementally delivered UTF-8 byte stream into lines.
//
// Decoding state persists across reads, so a multi-byte character split between
// two chunks is decoded once both halves have arrived. Only complete lines are
// returned; the unterminated tail is held until the next newline and is dropped
// if the stream ends first.
type LineReader struct {
	src     io.Reader
	chunk   []byte
	pending string
	lines   []string
	err     error
}

// NewLineReader returns a LineReader reading from r.
func NewLineReader(r io.Reader) *LineReader {
	return NewLineReaderSize(r, defaultChunkSize)
}

// NewLineReaderSize returns a LineReader that reads at most size bytes per call.
func NewLineReaderSize(r io.Reader, size int) *LineReader {
	if size <= 0 {
		size = defaultChunkSize
	}
	return &LineReader{
		src:   transform.NewReader(r, unicode.UTF8.NewDecoder()),
		chunk: make([]byte, size),
	}
}

// Next returns the next complete line without its trailing newline. It returns
// io.EOF once the source is exhausted, or the source's error after every line
// read before the failure has been returned.
func (lr *LineReader) Next() (string, error) {
	for len(lr.lines) == 0 {
		if lr.err != nil {
			return "", lr.err
		}
		n, err := lr.src.Read(lr.chunk)
		if n > 0 {
			lr.push(string(lr.chunk[:n]))
		}
		if err != nil {
			lr.err = err
		}
	}

	line := lr.lines[0]
	lr.lines = lr.lines[1:]
	return line, nil
}

// Buffered returns the unterminated tail currently held by the reader.
func (lr *LineReader) Buffered() string {
	return lr.pending
}

func (lr *LineReader) push(text string) {
	parts := strings.Split(lr.pending+text, "\n")
	lr.pending = parts[len(parts)-1]
	lr.lines = append(lr.lines, parts[:len(parts)-1]...)
}

// EncodeEvent renders ev as a single "data:" frame followed by a blank line.
func EncodeEvent(ev model.RelayEvent) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Prefix)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encode terminates the payload with one newline; the frame needs a second.
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Payload strips Prefix from line. ok is false when the line is not an event line.
func Payload(line string) (payload string, ok bool) {
	if !strings.HasPrefix(line, Prefix) {
		return "", false
	}
	return line[len(Prefix):], true
}
