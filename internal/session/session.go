// Package session owns running script processes: spawning, the per-session
// reader that decodes protocol lines as they arrive, the serialized writer,
// and the registry of live sessions.
package session

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

var (
	// ErrClosed means the session has terminated and can no longer be
	// written to.
	ErrClosed = errors.New("session closed")

	// ErrDesynchronized means the session produced a run of unparseable
	// lines. A line-oriented protocol cannot resynchronize once framing is
	// lost, so continuing to read is the risk being guarded against.
	ErrDesynchronized = errors.New("session desynchronized")
)

// Spec describes a script process to launch.
type Spec struct {
	Path string
	Args []string
	Env  map[string]string
	Dir  string
}

// Event is one decoded line (or session-level error) emitted to the engine.
// Events preserve the script's emission order.
type Event struct {
	SessionID string
	Outcome   protocol.Outcome
	Err       error
}

// Config bounds a session's resources.
type Config struct {
	// MaxLineBytes is the line-length ceiling. Defaults to the codec's.
	MaxLineBytes int

	// EventBuffer is the capacity of the reader→router channel. When it
	// fills, the reader blocks; protocol lines are never dropped.
	EventBuffer int

	// DesyncThreshold is how many consecutive malformed or oversized lines
	// mark the session unhealthy.
	DesyncThreshold int
}

const (
	defaultEventBuffer     = 64
	defaultDesyncThreshold = 5
)

func (c Config) withDefaults() Config {
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = protocol.DefaultMaxLineBytes
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = defaultEventBuffer
	}
	if c.DesyncThreshold <= 0 {
		c.DesyncThreshold = defaultDesyncThreshold
	}
	return c
}

// Session is one live script process. The execution engine owns it
// exclusively; collaborators only ever observe the events routed out of it.
type Session struct {
	id        string
	path      string
	startedAt time.Time

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	codec  *protocol.Codec
	log    *slog.Logger
	cfg    Config
	health *healthTracker

	events    chan Event
	readersWG sync.WaitGroup

	writeMu sync.Mutex

	termOnce sync.Once
	done     chan struct{}

	mu       sync.Mutex
	exitCode int
	exited   bool
}

func spawn(log *slog.Logger, id string, spec Spec, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	env := os.Environ()
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", spec.Path, err)
	}

	s := &Session{
		id:        id,
		path:      spec.Path,
		startedAt: time.Now(),
		cmd:       cmd,
		stdin:     stdin,
		codec:     &protocol.Codec{MaxLineBytes: cfg.MaxLineBytes},
		log:       log.With("session", id),
		cfg:       cfg,
		health:    &healthTracker{threshold: cfg.DesyncThreshold},
		events:    make(chan Event, cfg.EventBuffer),
		done:      make(chan struct{}),
	}

	s.readersWG.Add(2)
	go s.readLoop(stdout)
	go s.drainStderr(stderr)
	go s.reap()

	s.log.Info("session started", "path", spec.Path, "pid", cmd.Process.Pid)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// PID returns the OS process id.
func (s *Session) PID() int { return s.cmd.Process.Pid }

// Events is the stream of decoded outcomes, in the script's emission order.
// Closed when the reader stops (process exit, desync, or termination).
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed when the session has terminated.
func (s *Session) Done() <-chan struct{} { return s.done }

// ExitCode returns the process exit code once the process has exited.
func (s *Session) ExitCode() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.exited
}

// Send encodes a message and writes it as one line to the script's stdin.
// Writes are serialized so concurrent responses never interleave partial
// lines. A write failure terminates the session.
func (s *Session) Send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	if _, err := s.stdin.Write(append(data, '\n')); err != nil {
		s.log.Warn("write failed, terminating session", "error", err)
		s.Terminate()
		return fmt.Errorf("writing to session %s: %w", s.id, err)
	}
	return nil
}

// Terminate stops the session: the process is killed, the reader unblocks,
// and Done closes. Idempotent. The engine cancels the session's pending
// correlation entries when its event stream ends.
func (s *Session) Terminate() {
	s.termOnce.Do(func() {
		close(s.done)
		s.stdin.Close()
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
}

// reap waits for both pipe readers to finish, then collects the process.
func (s *Session) reap() {
	s.readersWG.Wait()

	err := s.cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	s.mu.Lock()
	s.exitCode = code
	s.exited = true
	s.mu.Unlock()

	s.log.Info("session exited", "code", code)
	s.Terminate()
}

func (s *Session) readLoop(stdout io.Reader) {
	defer s.readersWG.Done()
	defer close(s.events)

	br := bufio.NewReaderSize(stdout, 32*1024)
	for {
		line, byteLen, overflow, err := readLine(br, s.cfg.MaxLineBytes)

		if byteLen > 0 && len(bytes.TrimSpace(line)) > 0 || overflow {
			var out protocol.Outcome
			if overflow {
				out = s.codec.Oversized(line, byteLen)
			} else {
				out = s.codec.Decode(line)
			}
			if !s.emit(Event{SessionID: s.id, Outcome: out}) {
				return
			}
			if !s.health.observe(out.Status) {
				s.emit(Event{SessionID: s.id, Err: ErrDesynchronized})
				return
			}
		}

		if err != nil {
			if err != io.EOF {
				s.log.Debug("reader stopped", "error", err)
			}
			return
		}
	}
}

// emit forwards an event to the engine, blocking when the channel is full so
// order and completeness are preserved. Returns false once terminated.
func (s *Session) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) drainStderr(stderr io.Reader) {
	defer s.readersWG.Done()
	sc := bufio.NewScanner(stderr)
	sc.Buffer(make([]byte, 0, 16*1024), 256*1024)
	for sc.Scan() {
		s.log.Debug("script stderr", "line", sc.Text())
	}
}

// readLine reads one newline-terminated line. Oversized lines are consumed
// to their delimiter while keeping at most limit+1 bytes, bounding memory
// against a misbehaving process; byteLen is always the true content length.
func readLine(br *bufio.Reader, limit int) (line []byte, byteLen int, overflow bool, err error) {
	var buf []byte
	for {
		frag, ferr := br.ReadSlice('\n')
		complete := false
		if n := len(frag); n > 0 && frag[n-1] == '\n' {
			frag = frag[:n-1]
			complete = true
		}
		byteLen += len(frag)

		if avail := limit + 1 - len(buf); avail > 0 {
			if len(frag) > avail {
				frag = frag[:avail]
			}
			buf = append(buf, frag...)
		}

		if complete {
			return buf, byteLen, byteLen > limit, nil
		}
		if ferr != nil {
			if ferr == bufio.ErrBufferFull {
				continue
			}
			return buf, byteLen, byteLen > limit, ferr
		}
	}
}
