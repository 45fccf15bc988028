package ipc

import (
	"encoding/binary"
	"encoding/json"
	"net"
	"os"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	want, err := NewOverrideMessage(2)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		NewConn(client).Send(want)
	}()

	got, err := NewConn(server).ReadTimeout(time.Second)
	if err != nil {
		t.Fatalf("ReadTimeout failed: %v", err)
	}
	if got.Type != MsgOverrideSession {
		t.Errorf("type = %q, want %q", got.Type, MsgOverrideSession)
	}

	var p OverridePayload
	if err := json.Unmarshal(got.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.SessionID != 2 {
		t.Errorf("session_id = %d, want 2", p.SessionID)
	}
}

func TestReadTimeoutExpires(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	start := time.Now()
	_, err := NewConn(server).ReadTimeout(50 * time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("read did not respect the deadline")
	}
}

func TestReadRejectsOversizedFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		var hdr [4]byte
		binary.LittleEndian.PutUint32(hdr[:], maxMessageSize+1)
		client.Write(hdr[:])
	}()

	if _, err := NewConn(server).ReadTimeout(time.Second); err == nil {
		t.Fatal("oversized frame should be rejected")
	}
}

func TestReadRejectsZeroFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte{0, 0, 0, 0})
	}()

	if _, err := NewConn(server).ReadTimeout(time.Second); err == nil {
		t.Fatal("zero-length frame should be rejected")
	}
}

func TestListenerAcceptTimeout(t *testing.T) {
	nl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	lst := NewListener(nl)
	defer lst.Close()

	conn, err := lst.AcceptTimeout(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("AcceptTimeout failed: %v", err)
	}
	if conn != nil {
		t.Fatal("expected nil conn on timeout")
	}
}

func TestListenerAcceptsConnection(t *testing.T) {
	nl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	lst := NewListener(nl)
	defer lst.Close()

	go func() {
		c, err := net.Dial("tcp", nl.Addr().String())
		if err != nil {
			return
		}
		NewConn(c).Send(&Message{Type: MsgClose})
		c.Close()
	}()

	conn, err := lst.AcceptTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("AcceptTimeout failed: %v", err)
	}
	if conn == nil {
		t.Fatal("expected a connection")
	}
	defer conn.Close()

	msg, err := conn.ReadTimeout(time.Second)
	if err != nil {
		t.Fatalf("ReadTimeout failed: %v", err)
	}
	if msg.Type != MsgClose {
		t.Errorf("type = %q, want %q", msg.Type, MsgClose)
	}
}

func TestListenerCloseSurfacesError(t *testing.T) {
	nl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	lst := NewListener(nl)
	lst.Close()

	// The accept loop exits with an error once the listener closes.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, err := lst.AcceptTimeout(20 * time.Millisecond)
		if err != nil {
			return
		}
	}
	t.Fatal("closed listener should surface an accept error")
}

func TestSendCloseUnreachable(t *testing.T) {
	if _, err := os.Stat(ServiceEndpoint); err == nil {
		t.Skip("service endpoint exists on this machine")
	}
	if err := SendClose(ServiceEndpoint, 100*time.Millisecond); err == nil {
		t.Error("SendClose to a missing endpoint should fail")
	}
}
