package aggregator

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// FrameWriter is the aggregator's view of the stream transport: whole
// frames in, transport details hidden.
type FrameWriter interface {
	WriteFrame(frame []byte) error
	Close() error
}

// TCPUplink writes frames to the gateway endpoint over a single TCP
// connection, redialing on failure. A frame that cannot be written is
// dropped, never queued: the next radio packet supersedes it anyway.
type TCPUplink struct {
	mu   sync.Mutex
	addr string
	conn net.Conn
}

// DialUplink connects to the gateway endpoint, retrying with exponential
// backoff. Failure to establish the first connection is a setup error the
// caller should treat as fatal.
func DialUplink(addr string) (*TCPUplink, error) {
	u := &TCPUplink{addr: addr}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	err := backoff.Retry(func() error {
		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			log.Printf("aggregator: uplink dial %s failed: %v", addr, err)
			return err
		}
		u.conn = conn
		return nil
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("aggregator: uplink %s unreachable: %w", addr, err)
	}
	log.Printf("aggregator: uplink connected to %s", addr)
	return u, nil
}

// WriteFrame sends one frame. On a broken connection it drops the frame,
// then redials in the background so a later frame finds a fresh socket.
func (u *TCPUplink) WriteFrame(frame []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		conn, err := net.DialTimeout("tcp", u.addr, 5*time.Second)
		if err != nil {
			return fmt.Errorf("uplink down: %w", err)
		}
		log.Printf("aggregator: uplink reconnected to %s", u.addr)
		u.conn = conn
	}

	if _, err := u.conn.Write(frame); err != nil {
		_ = u.conn.Close()
		u.conn = nil
		return fmt.Errorf("uplink write: %w", err)
	}
	return nil
}

// Close shuts the connection down.
func (u *TCPUplink) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
