// Package display serves rendered frames to browsers over a websocket.
package display

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/taigrr/phongsphere/pkg/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local viewer, any origin
	},
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>phongsphere</title></head>
<body style="margin:0;background:#000;display:flex;justify-content:center;align-items:center;height:100vh">
<img id="frame" alt="frame">
<script>
const img = document.getElementById("frame");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.binaryType = "blob";
ws.onmessage = (ev) => {
  const old = img.src;
  img.src = URL.createObjectURL(ev.data);
  if (old) URL.revokeObjectURL(old);
};
</script>
</body>
</html>
`

// Server holds the latest presented frame as PNG and pushes it to every
// connected websocket client.
type Server struct {
	mu      sync.RWMutex
	frame   []byte
	clients map[*websocket.Conn]*sync.Mutex

	// Logf receives connection errors. Nil discards them.
	Logf func(format string, args ...any)
}

// NewServer creates a server with no frame.
func NewServer() *Server {
	return &Server{
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler returns the HTTP routes: the viewer page at / and the socket at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveHome)
	mux.HandleFunc("/ws", s.serveWebSocket)
	return mux
}

// Present encodes the frame and sends it to every client. The frame must not
// be rendering while Present runs.
func (s *Server) Present(fs *render.FrameStore) error {
	var buf bytes.Buffer
	if err := fs.EncodePNG(&buf); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	data := buf.Bytes()

	s.mu.Lock()
	s.frame = data
	clients := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for conn, mu := range s.clients {
		clients[conn] = mu
	}
	s.mu.Unlock()

	for conn, mu := range clients {
		s.send(conn, mu, data)
	}
	return nil
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = connMu
	frame := s.frame
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	if frame != nil {
		s.send(conn, connMu, frame)
	}

	// Drain until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, mu *sync.Mutex, data []byte) {
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.logf("websocket write: %v", err)
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}
