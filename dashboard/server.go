package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/net/netutil"

	"github.com/dailyplan/dailyplan/html"
	"github.com/dailyplan/dailyplan/log"
)

const NoContent = "<h1>No images available for the active pages.</h1>"

var imageRe = regexp.MustCompile(`^[A-Za-z0-9_-]+\.png$`)

// Server serves the slideshow page, the page images and the change notifications.
type Server struct {
	Builder  *Builder
	Hub      *Hub
	Interval time.Duration

	page *template.Template
	log  *log.Logger
}

func NewServer(builder *Builder, hub *Hub, interval time.Duration, logger *log.Logger) (*Server, error) {
	page, err := template.New("index.html").ParseFS(html.HTML, "index.html")
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 30 * time.Second
	}

	if hub == nil {
		hub = NewHub(logger)
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &Server{
		Builder:  builder,
		Hub:      hub,
		Interval: interval,
		page:     page,
		log:      logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /images/{image}", s.image)
	mux.Handle("GET /events", s.Hub)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})

	return mux
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	slides := s.Builder.Build(r.Context(), false)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	// the displays poll until at least one page renders
	if len(slides) == 0 {
		fmt.Fprintf(w, "<meta http-equiv=\"refresh\" content=\"%d\">\n%s", int(s.Interval.Seconds()), NoContent)
		return
	}

	page := map[string]any{
		"Slides":   slides,
		"Interval": s.Interval.Milliseconds(),
	}

	var b bytes.Buffer
	if err := s.page.Execute(&b, page); err != nil {
		s.log.Errorf("error formatting page (%v)", err)
		http.Error(w, "Error formatting page", http.StatusInternalServerError)
		return
	}

	w.Write(b.Bytes())
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("image")
	if !imageRe.MatchString(name) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")

	http.ServeFile(w, r, filepath.Join(s.Builder.Dir, name))
}

// Run serves HTTP on bind until the context is cancelled. A positive maxConnections
// limits the number of simultaneous connections.
func (s *Server) Run(ctx context.Context, bind string, maxConnections int) error {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	if maxConnections > 0 {
		listener = netutil.LimitListener(listener, maxConnections)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			s.log.Warnf("%v", err)
		}
	}()

	s.log.Infof("dashboard listening on %v", listener.Addr())

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
