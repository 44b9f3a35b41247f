package dashboard

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/dailyplan/dailyplan/raster"
)

func newTestServer(t *testing.T, src *source) (*Server, *httptest.Server) {
	t.Helper()

	builder, err := NewBuilder(src, raster.NewGrid(raster.DefaultOptions(), nil), DefaultPages(), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Unexpected error returned from NewBuilder (%v)", err)
	}

	hub := NewHub(nil)
	builder.Hub = hub

	server, err := NewServer(builder, hub, 30*time.Second, nil)
	if err != nil {
		t.Fatalf("Unexpected error returned from NewServer (%v)", err)
	}

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return server, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	rs, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %v failed (%v)", url, err)
	}

	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatalf("error reading response (%v)", err)
	}

	return rs, string(body)
}

func TestIndex(t *testing.T) {
	_, srv := newTestServer(t, &source{failOn: map[int]bool{2: true}})

	rs, body := get(t, srv.URL+"/")
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("Incorrect status - expected:%v, got:%v", http.StatusOK, rs.StatusCode)
	}

	for _, expected := range []string{"Morning Shift", "Night Shift", "Friday Shift", "/images/Morning.png?v=", "30000"} {
		if !strings.Contains(body, expected) {
			t.Errorf("Page missing %q", expected)
		}
	}

	if strings.Contains(body, "Evening Shift") {
		t.Errorf("Page includes failed slide 'Evening'")
	}

	if m, n, f := strings.Index(body, "Morning Shift"), strings.Index(body, "Night Shift"), strings.Index(body, "Friday Shift"); m > n || n > f {
		t.Errorf("Slides not in page order")
	}
}

func TestIndexWithoutImages(t *testing.T) {
	_, srv := newTestServer(t, &source{failOn: map[int]bool{1: true, 2: true, 3: true, 4: true}})

	rs, body := get(t, srv.URL+"/")
	if rs.StatusCode != http.StatusOK {
		t.Fatalf("Incorrect status - expected:%v, got:%v", http.StatusOK, rs.StatusCode)
	}

	if !strings.Contains(body, "No images available for the active pages.") {
		t.Errorf("Incorrect page for no content\n%s", body)
	}

	if !strings.Contains(body, `<meta http-equiv="refresh" content="30">`) {
		t.Errorf("No content page does not refresh\n%s", body)
	}
}

func TestIndexReloadsForNewPages(t *testing.T) {
	_, srv := newTestServer(t, &source{failOn: map[int]bool{2: true}})

	_, body := get(t, srv.URL+"/")
	if !strings.Contains(body, `data-page="Morning"`) || !strings.Contains(body, "location.reload()") {
		t.Errorf("Slideshow does not reload for pages missing from the page\n%s", body)
	}
}

func TestImages(t *testing.T) {
	_, srv := newTestServer(t, &source{version: "v1"})

	get(t, srv.URL+"/")

	rs, err := http.Get(srv.URL + "/images/Morning.png")
	if err != nil {
		t.Fatalf("%v", err)
	}

	defer rs.Body.Close()

	if rs.StatusCode != http.StatusOK {
		t.Fatalf("Incorrect status - expected:%v, got:%v", http.StatusOK, rs.StatusCode)
	}

	img, err := png.Decode(rs.Body)
	if err != nil {
		t.Fatalf("Response is not a PNG image (%v)", err)
	}

	if img.Bounds().Dx() != 480 || img.Bounds().Dy() != 660 {
		t.Errorf("Incorrect image size - got:%v", img.Bounds())
	}

	for _, path := range []string{"/images/Weekend.png", "/images/..%2Fdailyplan.lock", "/images/Morning.txt"} {
		if rs, _ := get(t, srv.URL+path); rs.StatusCode != http.StatusNotFound {
			t.Errorf("%v: expected %v, got %v", path, http.StatusNotFound, rs.StatusCode)
		}
	}
}

func TestHealthz(t *testing.T) {
	_, srv := newTestServer(t, &source{})

	if rs, body := get(t, srv.URL+"/healthz"); rs.StatusCode != http.StatusOK || body != "ok\n" {
		t.Errorf("Incorrect health check - status:%v body:%q", rs.StatusCode, body)
	}
}

func TestEvents(t *testing.T) {
	server, srv := newTestServer(t, &source{version: "v1"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/events", nil)
	if err != nil {
		t.Fatalf("Unexpected error connecting to /events (%v)", err)
	}

	defer conn.CloseNow()

	for server.Hub.Subscribers() == 0 {
		select {
		case <-ctx.Done():
			t.Fatalf("display never subscribed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	server.Builder.Build(ctx, false)

	_, msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Unexpected error reading event (%v)", err)
	}

	var event Event
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("Invalid event %s (%v)", msg, err)
	}

	expected := Event{Page: "Morning", Image: "Morning.png", Version: "v1"}
	if event != expected {
		t.Errorf("Incorrect event - expected:%+v, got:%+v", expected, event)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestLock(t *testing.T) {
	dir := t.TempDir()

	unlock, err := Lock(dir)
	if err != nil {
		t.Fatalf("Unexpected error returned from Lock (%v)", err)
	}

	if _, err := Lock(dir); err == nil {
		t.Errorf("Expected error locking a locked directory")
	}

	unlock()

	unlock, err = Lock(dir)
	if err != nil {
		t.Fatalf("Unexpected error relocking directory (%v)", err)
	}

	unlock()
}
