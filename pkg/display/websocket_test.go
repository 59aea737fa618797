package display

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/taigrr/phongsphere/pkg/math3d"
	"github.com/taigrr/phongsphere/pkg/render"
)

func testFrame(w, h int) *render.FrameStore {
	fs := render.NewFrameStore(w, h)
	for i := range fs.Color {
		fs.Color[i] = 0.5
	}
	return fs
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (int, int) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if typ != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", typ)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestServerIndex(t *testing.T) {
	srv := httptest.NewServer(NewServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "/ws") {
		t.Error("index page does not reference the websocket endpoint")
	}

	resp2, err := http.Get(srv.URL + "/missing")
	if err != nil {
		t.Fatalf("GET /missing: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp2.StatusCode)
	}
}

func TestServerPresent(t *testing.T) {
	s := NewServer()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	// A frame presented before connecting is sent on connect.
	if err := s.Present(testFrame(8, 4)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	conn := dial(t, srv)
	if w, h := readFrame(t, conn); w != 8 || h != 4 {
		t.Errorf("initial frame = %dx%d, want 8x4", w, h)
	}

	// Later frames are pushed.
	if err := s.Present(testFrame(6, 6)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if w, h := readFrame(t, conn); w != 6 || h != 6 {
		t.Errorf("pushed frame = %dx%d, want 6x6", w, h)
	}
	if got := s.Clients(); got != 1 {
		t.Errorf("Clients() = %d, want 1", got)
	}
}

func TestServerRendersSphere(t *testing.T) {
	cfg := render.DefaultConfig()
	cfg.Width, cfg.Height = 64, 64
	ctx, err := render.NewContext(cfg)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	defer ctx.Close()
	if _, err := ctx.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	s := NewServer()
	if err := s.Present(ctx.Frame()); err != nil {
		t.Fatalf("Present: %v", err)
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	conn := dial(t, srv)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Centre pixel is on the sphere, so it is green.
	_, g, _, _ := img.At(32, 32).RGBA()
	want := ctx.Frame().ColorAt(32, 31)
	if want == (math3d.Vec3{}) || g == 0 {
		t.Errorf("centre pixel not lit: frame %v, png green %d", want, g)
	}
}
