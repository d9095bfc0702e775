package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// defaultStopTimeout is how long Close waits for the subprocess to exit
// after stdin is closed before killing it.
const defaultStopTimeout = 5 * time.Second

// StdioConfig configures a process transport that spawns the tool server
// and exchanges newline-delimited JSON-RPC frames over stdin/stdout.
type StdioConfig struct {
	// Command is the executable to run.
	Command string

	// Args are command-line arguments passed to the executable.
	Args []string

	// Env are additional environment variables for the subprocess
	// (format: "KEY=VALUE"). These are appended to the current
	// process environment.
	Env []string

	// StopTimeout overrides the graceful shutdown window. Zero means 5s.
	StopTimeout time.Duration

	// Logger is the structured logger for transport diagnostics.
	Logger *slog.Logger
}

// StdioTransport communicates with a tool server running as a subprocess.
// Writes are serialized; a single reader goroutine delivers every stdout
// line to the sink, so many requests can be outstanding at once.
type StdioTransport struct {
	config StdioConfig
	logger *slog.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}

	writeMu   sync.Mutex
	connected atomic.Bool
}

var _ Transport = (*StdioTransport)(nil)

// NewStdioTransport creates a stdio transport for the given config.
// The subprocess is not started until Connect.
func NewStdioTransport(cfg StdioConfig) *StdioTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = defaultStopTimeout
	}
	return &StdioTransport{
		config: cfg,
		logger: logger.With(slog.String("transport", string(ModeProcess))),
	}
}

// Mode returns ModeProcess.
func (t *StdioTransport) Mode() Mode { return ModeProcess }

// Connected reports whether the subprocess is running.
func (t *StdioTransport) Connected() bool { return t.connected.Load() }

// Connect launches the subprocess if it is not already running. The
// subprocess lifecycle is independent of ctx; it survives individual
// request timeouts and is only terminated by Close or by exiting.
func (t *StdioTransport) Connect(_ context.Context, sink Sink) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd != nil && t.connected.Load() {
		return nil
	}

	t.logger.Info("starting tool server subprocess",
		slog.String("command", t.config.Command),
		slog.Any("args", t.config.Args))

	// #nosec G204 -- command comes from operator configuration
	cmd := exec.Command(t.config.Command, t.config.Args...)
	cmd.Env = append(os.Environ(), t.config.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// stderr is not part of the protocol; it only feeds debug logs.
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stderr.Close()
		_ = stdout.Close()
		_ = stdin.Close()
		return fmt.Errorf("start subprocess %s: %w", t.config.Command, err)
	}

	done := make(chan struct{})
	t.cmd = cmd
	t.stdin = stdin
	t.done = done
	t.connected.Store(true)

	go t.drainStderr(stderr)
	go t.readLoop(bufio.NewReaderSize(stdout, 1<<20), sink, cmd, done)

	t.logger.Info("tool server subprocess started", slog.Int("pid", cmd.Process.Pid))
	return nil
}

// readLoop delivers stdout lines to the sink until EOF, then reaps the
// process. It is the only caller of cmd.Wait.
func (t *StdioTransport) readLoop(r *bufio.Reader, sink Sink, cmd *exec.Cmd, done chan struct{}) {
	defer close(done)

	for {
		line, err := r.ReadBytes('\n')
		if frame := bytes.TrimSpace(line); len(frame) > 0 {
			sink.HandleMessage(frame)
		}
		if err == nil {
			continue
		}

		waitErr := cmd.Wait()

		t.mu.Lock()
		unexpected := t.cmd == cmd
		if unexpected {
			t.cmd = nil
			t.stdin = nil
			t.connected.Store(false)
		}
		t.mu.Unlock()

		if unexpected {
			t.logger.Warn("tool server subprocess exited",
				slog.Any("read_error", err),
				slog.Any("wait_error", waitErr))
			sink.HandleDisconnect(fmt.Errorf("read from subprocess stdout: %w", err))
		}
		return
	}
}

// drainStderr reads stderr lines and logs them at debug level.
func (t *StdioTransport) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		t.logger.Debug("tool server stderr", slog.String("line", scanner.Text()))
	}
}

// Send writes a request frame to the subprocess stdin.
func (t *StdioTransport) Send(_ context.Context, req *Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return t.write(data)
}

// Notify writes a notification frame to the subprocess stdin.
func (t *StdioTransport) Notify(_ context.Context, notif *Notification) error {
	data, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return t.write(data)
}

func (t *StdioTransport) write(data []byte) error {
	t.mu.Lock()
	stdin := t.stdin
	t.mu.Unlock()

	if stdin == nil || !t.connected.Load() {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write to subprocess stdin: %w", err)
	}
	return nil
}

// Close terminates the subprocess: stdin is closed to ask it to exit,
// and it is killed if it is still running after StopTimeout.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	cmd, stdin, done := t.cmd, t.stdin, t.done
	t.cmd = nil
	t.stdin = nil
	t.connected.Store(false)
	t.mu.Unlock()

	if cmd == nil {
		return nil
	}

	t.logger.Info("stopping tool server subprocess", slog.Int("pid", cmd.Process.Pid))

	if stdin != nil {
		_ = stdin.Close()
	}

	select {
	case <-done:
	case <-time.After(t.config.StopTimeout):
		t.logger.Warn("tool server subprocess did not exit gracefully, killing",
			slog.Int("pid", cmd.Process.Pid))
		_ = cmd.Process.Kill()
		<-done
	}
	return nil
}
