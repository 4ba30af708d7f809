package debugger

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/google/go-dap"
)

// transport handles framed DAP message exchange with an adapter process.
type transport struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	writer *bufio.Writer
	mu     sync.Mutex
	seq    int
}

// newStdioTransport wraps the stdin/stdout pipes of a spawned adapter.
func newStdioTransport(stdin io.WriteCloser, stdout io.ReadCloser) *transport {
	rwc := &stdioRWC{
		reader: stdout,
		writer: stdin,
	}

	return &transport{
		conn:   rwc,
		reader: bufio.NewReader(stdout),
		writer: bufio.NewWriter(stdin),
		seq:    1,
	}
}

type stdioRWC struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioRWC) Read(p []byte) (n int, err error) {
	return s.reader.Read(p)
}

func (s *stdioRWC) Write(p []byte) (n int, err error) {
	return s.writer.Write(p)
}

func (s *stdioRWC) Close() error {
	err1 := s.reader.Close()
	err2 := s.writer.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// nextSeq returns the next request sequence number.
func (t *transport) nextSeq() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	seq := t.seq
	t.seq++
	return seq
}

// send writes one DAP message.
func (t *transport) send(msg dap.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := dap.WriteProtocolMessage(t.writer, msg); err != nil {
		return fmt.Errorf("failed to write DAP message: %w", err)
	}

	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush DAP message: %w", err)
	}

	return nil
}

// receive reads one DAP message.
func (t *transport) receive() (dap.Message, error) {
	msg, err := dap.ReadProtocolMessage(t.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read DAP message: %w", err)
	}
	return msg, nil
}

func (t *transport) close() error {
	return t.conn.Close()
}
