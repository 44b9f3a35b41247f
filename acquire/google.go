package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	DRIVE  = "https://www.googleapis.com/auth/drive.readonly"
	SHEETS = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

var fileIDRe = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
var bareIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,}$`)

// DriveFileID extracts the file ID from a Google Drive or Google Sheets sharing URL
// (e.g. https://docs.google.com/spreadsheets/d/<id>/edit?usp=sharing). A bare file ID
// is returned unchanged.
func DriveFileID(url string) (string, error) {
	if match := fileIDRe.FindStringSubmatch(url); len(match) > 1 {
		return match[1], nil
	}

	if id := strings.TrimSpace(url); bareIDRe.MatchString(id) {
		return id, nil
	}

	return "", fmt.Errorf("invalid Google Drive URL %q - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'", url)
}

// GoogleClient returns an HTTP client authorised for the scopes. The credentials file is
// either a service account key or an OAuth client secret, in which case the token must
// already have been cached by the 'authorise' command.
func GoogleClient(ctx context.Context, credentials string, tokens string, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	var kind struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(b, &kind); err != nil {
		return nil, fmt.Errorf("invalid credentials file %v (%v)", credentials, err)
	}

	if kind.Type == "service_account" {
		jwt, err := google.JWTConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, err
		}

		return jwt.Client(ctx), nil
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, err
	}

	if tokens == "" {
		tokens = TokenFile(credentials, filepath.Dir(credentials))
	}

	token, err := TokenFromFile(tokens)
	if err != nil {
		return nil, fmt.Errorf("no cached OAuth2 token in %v - run 'dailyplan authorise' (%v)", tokens, err)
	}

	return config.Client(ctx, token), nil
}

// TokenFile returns the default token cache path for a credentials file.
func TokenFile(credentials string, workdir string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(workdir, fmt.Sprintf("%s.tokens", name))
}

// TokenFromFile retrieves a cached OAuth2 token.
func TokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}

	return token, nil
}

// SaveToken caches an OAuth2 token, readable by the owner only.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth2 token (%v)", err)
	}

	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
