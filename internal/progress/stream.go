package progress

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// recordSeparator delimits records on the wire. JSON encoding never emits a
// raw newline, so a blank line is an unambiguous record boundary.
var recordSeparator = []byte("\n\n")

// Flusher is the subset of http.Flusher the stream needs.
type Flusher interface {
	Flush()
}

// StreamSink writes each event as one self-delimited JSON record followed by
// a blank line, flushing after every record so the caller sees progress
// while the operation is in flight. It is safe for concurrent use.
type StreamSink struct {
	mu      sync.Mutex
	w       io.Writer
	flusher Flusher
}

// NewStreamSink wraps a response writer. flusher may be nil when the writer
// does not support incremental delivery.
func NewStreamSink(w io.Writer, flusher Flusher) *StreamSink {
	return &StreamSink{w: w, flusher: flusher}
}

// Consume implements Sink.
func (s *StreamSink) Consume(evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if _, err := s.w.Write(recordSeparator); err != nil {
		return fmt.Errorf("write record separator: %w", err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Scanner parses a record stream back into events, buffering partial network
// reads and only decoding complete records. A non-empty trailing fragment at
// end-of-stream is still parsed as a final record.
type Scanner struct {
	scanner *bufio.Scanner
}

// NewScanner wraps a reader carrying the record framing.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	sc.Split(splitRecords)
	return &Scanner{scanner: sc}
}

// Next returns the next event, or io.EOF when the stream is exhausted.
func (s *Scanner) Next() (Event, error) {
	for s.scanner.Scan() {
		record := bytes.TrimSpace(s.scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		var evt Event
		if err := json.Unmarshal(record, &evt); err != nil {
			return Event{}, fmt.Errorf("decode record: %w", err)
		}
		return evt, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read stream: %w", err)
	}
	return Event{}, io.EOF
}

func splitRecords(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.Index(data, recordSeparator); i >= 0 {
		return i + len(recordSeparator), data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
