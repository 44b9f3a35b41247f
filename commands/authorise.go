package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dailyplan/dailyplan/acquire"
	"github.com/dailyplan/dailyplan/html"
	"github.com/dailyplan/dailyplan/log"
)

var AuthoriseCmd = Authorise{
	command: command{
		workdir: DEFAULT_WORKDIR,
	},
	bind: "localhost:8085",
}

// Authorise runs the OAuth2 consent flow for an OAuth client credentials file and
// caches the resulting token for the gdrive and gsheets sources.
type Authorise struct {
	command
	credentials string
	bind        string
	flags       *pflag.FlagSet
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises dailyplan to read the planning workbook from Google Drive or Google Sheets"
}

func (cmd *Authorise) Usage() string {
	return "[--credentials <file>]"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--env <file>] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Opens the Google consent page in a browser and caches the OAuth2 token used to")
	fmt.Println("  download the workbook. Not required for service account credentials.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --credentials .google/credentials.json\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *pflag.FlagSet {
	if cmd.flags == nil {
		cmd.flags = cmd.flagset("authorise")
		cmd.flags.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the 'credentials.json' file. Defaults to GOOGLE_CREDENTIALS")
		cmd.flags.StringVar(&cmd.bind, "bind", cmd.bind, "Local address for the OAuth2 redirect")
	}

	return cmd.flags
}

func (cmd *Authorise) Execute(ctx context.Context, options *Options) error {
	cfg, err := cmd.configure(options, cmd.FlagSet())
	if err != nil {
		return err
	}

	if cmd.credentials != "" {
		cfg.Google.Credentials = cmd.credentials
	}

	logger := log.Default(cfg.Debug)

	b, err := os.ReadFile(cfg.GoogleCredentials())
	if err != nil {
		return err
	}

	config, err := google.ConfigFromJSON(b, acquire.DRIVE, acquire.SHEETS)
	if err != nil {
		return fmt.Errorf("authorisation error (%v)", err)
	}

	listener, err := net.Listen("tcp", cmd.bind)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	return authorise(ctx, config, listener, tokens(cfg), browse, logger)
}

// authorise serves the consent page on the listener, waits for the redirect with the
// authorisation code and caches the exchanged token.
func authorise(ctx context.Context, config *oauth2.Config, listener net.Listener, tokens string, open func(string) error, logger *log.Logger) error {
	state, err := nonce()
	if err != nil {
		return err
	}

	base := "http://" + listener.Addr().String()
	config.RedirectURL = base + "/"

	page, err := template.ParseFS(html.HTML, "auth.html")
	if err != nil {
		return err
	}

	authorised := make(chan string, 1)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth.html", func(w http.ResponseWriter, r *http.Request) {
		links := map[string]any{
			"drive":  template.URL(config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("scope", acquire.DRIVE))),
			"sheets": template.URL(config.AuthCodeURL(state, oauth2.AccessTypeOffline)),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, links); err != nil {
			http.Error(w, "Error formatting page", http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		code := r.FormValue("code")
		if r.FormValue("state") != state || code == "" {
			http.Error(w, "invalid authorisation response", http.StatusBadRequest)
			return
		}

		select {
		case authorised <- code:
		default:
		}

		fmt.Fprintln(w, "dailyplan authorised - you can close this page")
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("%v", err)
		}
	}()

	defer func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			logger.Warnf("%v", err)
		}
	}()

	if err := open(base + "/auth.html"); err != nil {
		fmt.Printf("Could not open authorisation page in your browser - please open %v/auth.html manually\n", base)
	}

	select {
	case <-ctx.Done():
		fmt.Printf("\n.. cancelled\n\n")
		return nil

	case code := <-authorised:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("unable to retrieve token from web (%v)", err)
		}

		if err := acquire.SaveToken(tokens, token); err != nil {
			return err
		}

		logger.Infof("saved OAuth2 token to %v", filepath.Clean(tokens))
	}

	return nil
}

func browse(url string) error {
	args := append(append([]string{}, opener[1:]...), url)

	return exec.Command(opener[0], args...).Run()
}

func nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
