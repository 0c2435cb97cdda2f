package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const boundary = "frame"

// MJPEGStream is a Sink publishing annotated frames to browsers as a
// multipart JPEG stream, with the running totals available as JSON
type MJPEGStream struct {
	stats func() Stats
	log   *zap.SugaredLogger

	mu      sync.Mutex
	latest  []byte
	clients map[chan []byte]struct{}
	done    chan struct{}
	closed  bool
}

// NewMJPEGStream returns a stream sink, stats is called for each /stats
// request
func NewMJPEGStream(stats func() Stats, log *zap.SugaredLogger) *MJPEGStream {
	return &MJPEGStream{
		stats:   stats,
		log:     log,
		clients: make(map[chan []byte]struct{}),
		done:    make(chan struct{}),
	}
}

// Write encodes the frame as JPEG and hands it to every connected client.
// Slow clients skip frames rather than blocking processing.
func (s *MJPEGStream) Write(img gocv.Mat) error {

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		return fmt.Errorf("error encoding frame: %w", err)
	}

	jpg := make([]byte, buf.Len())
	copy(jpg, buf.GetBytes())
	buf.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = jpg

	for ch := range s.clients {
		select {
		case ch <- jpg:
		default:
		}
	}

	return nil
}

// Router returns the HTTP routes of the stream
func (s *MJPEGStream) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/stream", s.handleStream).Methods("GET")
	r.HandleFunc("/stats", s.handleStats).Methods("GET")
	return r
}

// ListenAndServe serves the stream on addr until ctx is cancelled
func (s *MJPEGStream) ListenAndServe(ctx context.Context, addr string) error {

	srv := &http.Server{
		Handler:     s.Router(),
		Addr:        addr,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnw("error shutting down stream server", "addr", addr, "error", err)
		}
	}()

	s.log.Infow("serving annotated stream", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error serving stream: %w", err)
	}

	return nil
}

// subscribe registers a client channel, primed with the latest frame
func (s *MJPEGStream) subscribe() (chan []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false
	}

	ch := make(chan []byte, 1)

	if s.latest != nil {
		ch <- s.latest
	}

	s.clients[ch] = struct{}{}

	return ch, true
}

func (s *MJPEGStream) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, ch)
}

// handleStream writes frames to the client until it disconnects or the
// stream is closed
func (s *MJPEGStream) handleStream(w http.ResponseWriter, r *http.Request) {

	ch, ok := s.subscribe()

	if !ok {
		http.Error(w, "stream closed", http.StatusServiceUnavailable)
		return
	}

	defer s.unsubscribe(ch)

	s.log.Debugw("stream client connected", "remote", r.RemoteAddr)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)

	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-r.Context().Done():
			s.log.Debugw("stream client disconnected", "remote", r.RemoteAddr)
			return

		case <-s.done:
			return

		case jpg := <-ch:
			_, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
				boundary, len(jpg))

			if err == nil {
				_, err = w.Write(jpg)
			}

			if err == nil {
				_, err = w.Write([]byte("\r\n"))
			}

			if err != nil {
				return
			}

			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (s *MJPEGStream) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats()); err != nil {
		s.log.Warnw("error writing stats", "remote", r.RemoteAddr, "error", err)
	}
}

// Close disconnects all clients
func (s *MJPEGStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}

	return nil
}
