package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const waitFor = 3 * time.Second

func listenPort(t *testing.T, tr *Transport) int {
	t.Helper()

	require.NoError(t, tr.Listen(0))
	addr, ok := tr.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return addr.Port
}

// connectedPair returns a host and a peer transport joined over loopback.
func connectedPair(t *testing.T) (*Transport, *Transport) {
	t.Helper()

	host, peer := NewTransport(nil), NewTransport(nil)
	port := listenPort(t, host)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return host.Accept(ctx) })
	g.Go(func() error { return peer.Dial(ctx, "127.0.0.1", port) })
	require.NoError(t, g.Wait())

	t.Cleanup(func() {
		host.Close()
		peer.Close()
	})
	return host, peer
}

func drainUntil(t *testing.T, tr *Transport, n int) []int {
	t.Helper()

	var got []int
	require.Eventually(t, func() bool {
		got = append(got, tr.Drain()...)
		return len(got) >= n
	}, waitFor, 5*time.Millisecond)
	return got
}

func isDone(tr *Transport) bool {
	select {
	case <-tr.Done():
		return true
	default:
		return false
	}
}

func TestTransportSendReceive(t *testing.T) {
	host, peer := connectedPair(t)

	for _, column := range []int{3, 0, 6, 2} {
		require.NoError(t, host.Send(column))
	}
	assert.Equal(t, []int{3, 0, 6, 2}, drainUntil(t, peer, 4))

	require.NoError(t, peer.Send(5))
	assert.Equal(t, []int{5}, drainUntil(t, host, 1))

	assert.NotEmpty(t, host.RemoteAddr())
	assert.NoError(t, host.Err())
}

func TestTransportListenAndAccept(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	host := NewTransport(nil)
	defer host.Close()

	accepted := make(chan error, 1)
	go func() { accepted <- host.ListenAndAccept(context.Background(), port) }()

	peer := NewTransport(nil)
	t.Cleanup(func() { peer.Close() })
	require.Eventually(t, func() bool {
		if err := peer.Dial(context.Background(), "127.0.0.1", port); err == nil {
			return true
		}
		// A failed dial leaves the transport started
		peer = NewTransport(nil)
		return false
	}, waitFor, 10*time.Millisecond)
	require.NoError(t, <-accepted)

	require.NoError(t, peer.Send(4))
	require.Eventually(t, func() bool { return host.Queue().Len() == 1 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, []int{4}, host.Drain())
}

func TestTransportFramesCoalescedAndSplitReads(t *testing.T) {
	host := NewTransport(nil)
	port := listenPort(t, host)
	defer host.Close()

	accepted := make(chan error, 1)
	go func() { accepted <- host.Accept(context.Background()) }()

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, <-accepted)

	// Several tokens in one write, a token split over two writes and a
	// malformed one in between
	for _, chunk := range []string{"1\n2\n3", "\nbogus\n4", "\n"} {
		_, err := conn.Write([]byte(chunk))
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}

	assert.Equal(t, []int{1, 2, 3, 4}, drainUntil(t, host, 4))
	assert.False(t, isDone(host), "a malformed token must not end the session")
}

func TestTransportRemoteClose(t *testing.T) {
	host, peer := connectedPair(t)

	require.NoError(t, peer.Close())

	require.Eventually(t, func() bool { return isDone(host) }, waitFor, 5*time.Millisecond)
	assert.ErrorIs(t, host.Err(), ErrDisconnected)
	assert.ErrorIs(t, host.Send(1), ErrDisconnected)
}

func TestTransportCloseFlushesQueuedMoves(t *testing.T) {
	host, peer := connectedPair(t)

	require.NoError(t, host.Send(5))
	require.NoError(t, host.Close())

	assert.Equal(t, []int{5}, drainUntil(t, peer, 1))
	require.Eventually(t, func() bool { return isDone(peer) }, waitFor, 5*time.Millisecond)
}

func TestTransportCloseIsPromptAndIdempotent(t *testing.T) {
	host, _ := connectedPair(t)

	start := time.Now()
	require.NoError(t, host.Close())
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, host.Close())

	assert.True(t, isDone(host))
	assert.ErrorIs(t, host.Err(), ErrDisconnected)
	assert.Error(t, host.Send(1))
}

func TestTransportCloseFlushHasOneDeadline(t *testing.T) {
	tr := NewTransport(nil)
	tr.writeTimeout = 500 * time.Millisecond
	require.NoError(t, tr.begin())

	local, remote := net.Pipe()
	defer remote.Close()

	// A peer reading one byte every 100ms takes about 200ms per column
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := remote.Read(buf); err != nil {
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
	}()
	require.NoError(t, tr.attach(local))

	for i := 0; i < SendQueueSize; i++ {
		require.NoError(t, tr.Send(i%7))
	}

	start := time.Now()
	require.NoError(t, tr.Close())
	assert.Less(t, time.Since(start), 1500*time.Millisecond)
	assert.ErrorIs(t, tr.Err(), ErrWrite)
}

func TestTransportCloseRacingAttach(t *testing.T) {
	for i := 0; i < 50; i++ {
		tr := NewTransport(nil)
		require.NoError(t, tr.begin())
		local, remote := net.Pipe()

		attached := make(chan error, 1)
		go func() { attached <- tr.attach(local) }()
		require.NoError(t, tr.Close())

		if err := <-attached; err != nil {
			assert.ErrorIs(t, err, ErrDisconnected)
		}
		require.NoError(t, tr.Close())
		assert.True(t, isDone(tr))
		remote.Close()
	}
}

func TestTransportSendQueueFull(t *testing.T) {
	tr := NewTransport(nil)
	require.NoError(t, tr.begin())

	local, remote := net.Pipe()
	defer remote.Close()
	// No writer goroutine, so nothing empties the queue
	tr.conn = local

	for i := 0; i < SendQueueSize; i++ {
		require.NoError(t, tr.Send(i%7))
	}
	err := tr.Send(0)
	require.ErrorIs(t, err, ErrWrite)
	assert.False(t, isDone(tr))

	tr.Abort(err)
	assert.True(t, isDone(tr))
	assert.ErrorIs(t, tr.Err(), ErrWrite)
	assert.ErrorIs(t, tr.Send(1), ErrWrite)
	assert.NoError(t, tr.Close())
}

func TestTransportAbortEndsRemote(t *testing.T) {
	host, peer := connectedPair(t)

	host.Abort(fmt.Errorf("%w: send queue full", ErrWrite))
	assert.True(t, isDone(host))

	require.Eventually(t, func() bool { return isDone(peer) }, waitFor, 5*time.Millisecond)
	assert.ErrorIs(t, peer.Err(), ErrDisconnected)
}

func TestTransportSendNotConnected(t *testing.T) {
	tr := NewTransport(nil)
	assert.ErrorIs(t, tr.Send(1), ErrNotConnected)
	assert.Nil(t, tr.Drain())
}

func TestTransportBindError(t *testing.T) {
	taken := NewTransport(nil)
	port := listenPort(t, taken)
	defer taken.Close()

	err := NewTransport(nil).Listen(port)
	assert.ErrorIs(t, err, ErrBind)
}

func TestTransportConnectError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	err = NewTransport(nil).Dial(context.Background(), "127.0.0.1", port)
	assert.ErrorIs(t, err, ErrConnect)
}

func TestTransportAcceptCancelled(t *testing.T) {
	tr := NewTransport(nil)
	listenPort(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- tr.Accept(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrAccept)
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(waitFor):
		t.Fatal("accept did not return after cancel")
	}
	assert.NoError(t, tr.Close())
}

func TestTransportCloseUnblocksAccept(t *testing.T) {
	tr := NewTransport(nil)
	listenPort(t, tr)

	errc := make(chan error, 1)
	go func() { errc <- tr.Accept(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrAccept)
	case <-time.After(waitFor):
		t.Fatal("accept did not return after Close")
	}
}

func TestTransportStartsOnce(t *testing.T) {
	tr := NewTransport(nil)
	listenPort(t, tr)
	defer tr.Close()

	assert.ErrorIs(t, tr.Listen(0), ErrAlreadyStarted)
	assert.ErrorIs(t, tr.Dial(context.Background(), "127.0.0.1", 1), ErrAlreadyStarted)
}
