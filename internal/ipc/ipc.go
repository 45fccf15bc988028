// Package ipc implements the agent's control channel: a local
// byte-stream endpoint carrying one framed message per connection.
// Frames are a uint32 little-endian length prefix followed by a JSON
// body. The supervisor listens on the service endpoint; each worker
// listens on the worker endpoint of its machine.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// Control message types.
const (
	MsgClose           = "close"
	MsgSAS             = "sas"
	MsgOverrideSession = "override_session"
)

// maxMessageSize bounds a single control frame. Control messages are
// tiny; anything larger is a protocol violation.
const maxMessageSize = 64 * 1024

// Message is the framed control message.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OverridePayload is the payload of an override_session message.
type OverridePayload struct {
	SessionID uint32 `json:"session_id"`
}

// NewOverrideMessage builds an override_session message for sid.
func NewOverrideMessage(sid uint32) (*Message, error) {
	payload, err := json.Marshal(OverridePayload{SessionID: sid})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MsgOverrideSession, Payload: payload}, nil
}

// Listener accepts control connections with a bounded wait.
type Listener struct {
	l     net.Listener
	conns chan net.Conn
	errs  chan error
}

// NewListener wraps l with a bounded-wait accept loop. Close the
// returned Listener to release the underlying listener.
func NewListener(l net.Listener) *Listener {
	lst := &Listener{
		l:     l,
		conns: make(chan net.Conn, 1),
		errs:  make(chan error, 1),
	}
	go lst.acceptLoop()
	return lst
}

func (l *Listener) acceptLoop() {
	for {
		c, err := l.l.Accept()
		if err != nil {
			select {
			case l.errs <- err:
			default:
			}
			return
		}
		l.conns <- c
	}
}

// AcceptTimeout waits up to d for an incoming connection. A timeout
// returns (nil, nil); a listener failure returns the error.
func (l *Listener) AcceptTimeout(d time.Duration) (*Conn, error) {
	select {
	case c := <-l.conns:
		return &Conn{c: c}, nil
	case err := <-l.errs:
		return nil, err
	case <-time.After(d):
		return nil, nil
	}
}

// Addr returns the listener's address.
func (l *Listener) Addr() net.Addr { return l.l.Addr() }

// Close shuts the listener down. Any blocked AcceptTimeout observes
// the accept error.
func (l *Listener) Close() error { return l.l.Close() }

// Conn is one control connection.
type Conn struct {
	c net.Conn
}

// NewConn wraps an established net.Conn.
func NewConn(c net.Conn) *Conn { return &Conn{c: c} }

// ReadTimeout reads one framed message, waiting at most d.
func (c *Conn) ReadTimeout(d time.Duration) (*Message, error) {
	c.c.SetReadDeadline(time.Now().Add(d))
	return readMessage(c.c)
}

// Send writes one framed message.
func (c *Conn) Send(msg *Message) error {
	return writeMessage(c.c, msg)
}

// Close closes the connection.
func (c *Conn) Close() error { return c.c.Close() }

func writeMessage(w io.Writer, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if len(data) > maxMessageSize {
		return fmt.Errorf("message too large: %d bytes", len(data))
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readMessage(r io.Reader) (*Message, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	size := binary.LittleEndian.Uint32(hdr[:])
	if size == 0 || size > maxMessageSize {
		return nil, fmt.Errorf("invalid message size %d", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return &msg, nil
}

// SendClose delivers a best-effort close notification to endpoint.
func SendClose(endpoint string, timeout time.Duration) error {
	return send(endpoint, timeout, &Message{Type: MsgClose})
}

func send(endpoint string, timeout time.Duration, msg *Message) error {
	conn, err := Dial(endpoint, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Send(msg)
}
