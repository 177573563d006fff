package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"
)

const (
	DefaultPort = 8080

	ConnTimeout  = 10 * time.Second
	WriteTimeout = 5 * time.Second

	// Upper bound on how long the receive goroutine takes to notice Close
	PollInterval = 100 * time.Millisecond

	SendQueueSize  = 10
	readBufferSize = 1024
)

// Transport carries moves over a single TCP connection. It accepts exactly
// one connection as host or dials one as peer, then runs a receive goroutine
// feeding a Queue and a writer goroutine draining Send.
type Transport struct {
	Logger *Logger

	queue *Queue
	out   chan int

	writeTimeout time.Duration

	mu       sync.Mutex
	started  bool
	finished bool
	listener net.Listener
	conn     net.Conn
	err      error

	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	readers sync.WaitGroup
	writers sync.WaitGroup
}

func NewTransport(logger *Logger) *Transport {
	return &Transport{
		Logger:  logger,
		queue:   NewQueue(),
		out:     make(chan int, SendQueueSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),

		writeTimeout: WriteTimeout,
	}
}

func (t *Transport) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return ErrDisconnected
	} else if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	return nil
}

// Listen binds the port. Port 0 picks a free port, see Addr.
func (t *Transport) Listen(port int) error {
	if err := t.begin(); err != nil {
		return err
	}

	l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		l.Close()
		return fmt.Errorf("%w: %w", ErrBind, ErrDisconnected)
	}
	t.listener = l

	t.Logger.Logf(LogStandard, "Listening on %s", l.Addr())
	return nil
}

// Accept blocks until one peer connects, ctx is cancelled or the transport
// is closed. The listener is closed afterwards either way.
func (t *Transport) Accept(ctx context.Context) error {
	t.mu.Lock()
	l := t.listener
	t.mu.Unlock()

	if l == nil {
		return fmt.Errorf("%w: not listening", ErrAccept)
	}

	stop := context.AfterFunc(ctx, func() {
		l.Close()
	})
	conn, err := l.Accept()
	stop()

	t.mu.Lock()
	t.listener = nil
	t.mu.Unlock()
	l.Close()

	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrAccept, err)
	}

	return t.attach(conn)
}

func (t *Transport) ListenAndAccept(ctx context.Context, port int) error {
	if err := t.Listen(port); err != nil {
		return err
	}
	return t.Accept(ctx)
}

func (t *Transport) Dial(ctx context.Context, address string, port int) error {
	if err := t.begin(); err != nil {
		return err
	}

	target := net.JoinHostPort(address, strconv.Itoa(port))
	t.Logger.Logf(LogStandard, "Connecting to %s", target)

	d := net.Dialer{Timeout: ConnTimeout}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	return t.attach(conn)
}

func (t *Transport) attach(conn net.Conn) error {
	t.mu.Lock()
	if t.finished || t.isClosing() {
		t.mu.Unlock()
		conn.Close()
		return ErrDisconnected
	}
	t.conn = conn
	// Close only waits after closing is closed under mu, so these are
	// always counted before its Wait.
	t.readers.Add(1)
	t.writers.Add(1)
	t.mu.Unlock()

	t.Logger.Logf(LogStandard, "Connected to %s", conn.RemoteAddr())

	go t.handleRead(conn)
	go t.handleWrite(conn)
	return nil
}

// Addr returns the bound address while listening.
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *Transport) RemoteAddr() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ""
	}
	return t.conn.RemoteAddr().String()
}

// Send queues a column for the writer goroutine and returns immediately.
func (t *Transport) Send(column int) error {
	t.mu.Lock()
	conn, err := t.conn, t.err
	t.mu.Unlock()

	if err != nil {
		return err
	} else if conn == nil {
		return ErrNotConnected
	}

	if t.isClosing() {
		return ErrNotConnected
	}

	select {
	case t.out <- column:
		return nil
	case <-t.done:
		return t.Err()
	default:
		return fmt.Errorf("%w: send queue full", ErrWrite)
	}
}

func (t *Transport) isClosing() bool {
	select {
	case <-t.closing:
		return true
	default:
		return false
	}
}

func (t *Transport) Queue() *Queue {
	return t.queue
}

// Drain returns the columns received since the last call.
func (t *Transport) Drain() []int {
	return t.queue.DrainAll()
}

// Done is closed once the session is over, whichever side ended it.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err reports why the session ended, or nil while it is running.
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

func (t *Transport) handleRead(conn net.Conn) {
	defer t.readers.Done()

	var (
		dec decoder
		buf = make([]byte, readBufferSize)
	)
	push := func(column int) {
		t.Logger.Logf(LogDebug, "Received column %d", column)
		t.queue.Push(column)
	}
	bad := func(err *ProtocolError) {
		t.Logger.Log(LogStandard, err)
	}

	for {
		select {
		case <-t.done:
			return
		default:
		}

		err := conn.SetReadDeadline(time.Now().Add(PollInterval))
		if err != nil {
			t.shutdown(fmt.Errorf("%w: %w", ErrDisconnected, err))
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n], push, bad)
		}
		if err == nil {
			continue
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			continue
		}

		if dec.Pending() {
			t.Logger.Log(LogStandard, "Discarding unterminated token at end of stream")
		}

		if errors.Is(err, io.EOF) {
			t.Logger.Log(LogStandard, "Remote closed the connection")
			t.shutdown(fmt.Errorf("%w: remote closed the connection", ErrDisconnected))
		} else {
			t.shutdown(fmt.Errorf("%w: %w", ErrDisconnected, err))
		}
		return
	}
}

func (t *Transport) handleWrite(conn net.Conn) {
	defer t.writers.Done()

	write := func(column int, deadline time.Time) bool {
		conn.SetWriteDeadline(deadline)
		if _, err := conn.Write(EncodeColumn(column)); err != nil {
			t.shutdown(fmt.Errorf("%w: %w", ErrWrite, err))
			return false
		}

		t.Logger.Logf(LogDebug, "Sent column %d", column)
		return true
	}

	// Flush what was queued before Close, all of it within one timeout
	flush := func() {
		deadline := time.Now().Add(t.writeTimeout)
		for {
			select {
			case column := <-t.out:
				if !write(column, deadline) {
					return
				}
			default:
				return
			}
		}
	}

	for {
		if t.isClosing() {
			flush()
			return
		}

		select {
		case <-t.done:
			return
		case <-t.closing:
			flush()
			return
		case column := <-t.out:
			if !write(column, time.Now().Add(t.writeTimeout)) {
				return
			}
		}
	}
}

// shutdown ends the session without waiting on the goroutines, so they may
// call it themselves.
func (t *Transport) shutdown(reason error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return nil
	}
	t.finished = true

	if t.err == nil {
		t.err = reason
	}
	close(t.done)

	var err error
	if t.listener != nil {
		err = multierr.Append(err, ignoreClosed(t.listener.Close()))
	}
	if t.conn != nil {
		err = multierr.Append(err, ignoreClosed(t.conn.Close()))
	}
	return err
}

// Abort ends the session at once, dropping whatever is still queued. Unlike
// Close it does not wait for the goroutines.
func (t *Transport) Abort(reason error) {
	if err := t.shutdown(reason); err != nil {
		t.Logger.Logf(LogStandard, "Error closing connection: %s", err)
	}
}

// Close flushes queued moves, closes the socket and waits for both
// goroutines to exit. It is safe to call more than once and from any
// goroutine other than the transport's own.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		close(t.closing)
		t.mu.Unlock()
		t.writers.Wait()

		err = t.shutdown(fmt.Errorf("%w: closed locally", ErrDisconnected))
	})

	t.readers.Wait()
	return err
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
