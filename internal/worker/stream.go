package worker

import (
	"bytes"
	"errors"
	"image/jpeg"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kbinani/screenshot"

	"github.com/farview/farview-agent/internal/config"
	"github.com/farview/farview-agent/internal/cursor"
)

const jpegQuality = 75

// frameHeader precedes every binary frame on the stream. The cursor
// block is present only when the cursor shape changed since the last
// frame sent on this connection.
type frameHeader struct {
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Format   string       `json:"format"`
	DataSize int          `json:"data_size"`
	Cursor   *cursorShape `json:"cursor,omitempty"`
}

type cursorShape struct {
	ID     uint64 `json:"id"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	HotX   uint32 `json:"hot_x"`
	HotY   uint32 `json:"hot_y"`
	Pixels []byte `json:"pixels"`
}

// StreamServer serves the session's frame stream over a websocket.
// One frame is a JSON header followed by a JPEG-encoded binary
// message.
type StreamServer struct {
	cfg      *config.Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	srv      *http.Server
}

func NewStreamServer(cfg *config.Config, logger *slog.Logger) *StreamServer {
	s := &StreamServer{cfg: cfg, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleStream)
	s.srv = &http.Server{Handler: mux}
	return s
}

// ListenAndServe blocks serving the stream until Close is called.
func (s *StreamServer) ListenAndServe(addr string) error {
	s.srv.Addr = addr
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts the server down, dropping open stream connections.
func (s *StreamServer) Close() {
	s.srv.Close()
}

func (s *StreamServer) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("stream upgrade failed", "error", err)
		return
	}
	defer ws.Close()
	s.logger.Info("stream client connected", "remote", r.RemoteAddr)

	// The reader only exists to surface disconnects and service
	// websocket control frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.FrameInterval())
	defer ticker.Stop()

	var lastCursor uintptr
	for {
		select {
		case <-done:
			s.logger.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-ticker.C:
		}

		hdr, frame, err := s.buildFrame(&lastCursor)
		if err != nil {
			s.logger.Debug("frame capture failed", "error", err)
			continue
		}
		if err := ws.WriteJSON(hdr); err != nil {
			return
		}
		if err := ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}

// buildFrame captures the display and, when its shape changed,
// the cursor. lastCursor carries the per-connection shape cache.
func (s *StreamServer) buildFrame(lastCursor *uintptr) (*frameHeader, []byte, error) {
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, nil, err
	}

	hdr := &frameHeader{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Format:   "jpeg",
		DataSize: buf.Len(),
		Cursor:   s.captureCursor(lastCursor),
	}
	return hdr, buf.Bytes(), nil
}

// captureCursor returns the cursor shape when it changed since the
// last frame, nil otherwise. Capture failures keep the cache stale so
// the next frame retries.
func (s *StreamServer) captureCursor(lastCursor *uintptr) *cursorShape {
	ref, ok, err := cursor.Current()
	if err != nil {
		if !errors.Is(err, cursor.ErrNotSupported) {
			s.logger.Debug("cursor query failed", "error", err)
		}
		return nil
	}
	if !ok || ref == *lastCursor {
		return nil
	}

	snap, err := cursor.Capture(ref)
	if err != nil {
		s.logger.Debug("cursor capture failed", "error", err)
		return nil
	}
	*lastCursor = ref
	return &cursorShape{
		ID:     snap.ID,
		Width:  snap.Width,
		Height: snap.Height,
		HotX:   snap.HotX,
		HotY:   snap.HotY,
		Pixels: snap.Pixels,
	}
}
