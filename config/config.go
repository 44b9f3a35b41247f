// Package config loads the dashboard settings from an optional .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Source     string
	SharePoint SharePoint
	Google     Google
	File       File
	// Password decrypts the workbook, whatever the source.
	Password string

	Renderer        string
	SnapshotCommand []string
	SnapshotTimeout time.Duration
	RenderURL       string
	RenderKey       string

	Pages           string
	Workdir         string
	Bind            string
	SlideInterval   time.Duration
	RefreshInterval time.Duration
	MaxAge          time.Duration
	MaxConnections  int
	Debug           bool
}

type SharePoint struct {
	SiteURL      string
	FileURL      string
	Username     string
	Password     string
	TenantID     string
	ClientID     string
	ClientSecret string
}

type Google struct {
	Credentials string
	FileURL     string
	Tokens      string
}

type File struct {
	Path string
}

const (
	SourceSharePoint = "sharepoint"
	SourceDrive      = "gdrive"
	SourceSheets     = "gsheets"
	SourceFile       = "file"

	RendererGrid    = "grid"
	RendererExec    = "exec"
	RendererService = "service"
)

const DefaultPages = "Morning!A1:H33,Evening!A1:H33,Night!A1:H33,Friday!A1:H33"

// New returns the default configuration for the working directory.
func New(workdir string) *Config {
	return &Config{
		Source:          SourceSharePoint,
		Renderer:        RendererGrid,
		SnapshotTimeout: 60 * time.Second,
		Pages:           DefaultPages,
		Workdir:         workdir,
		Bind:            ":8080",
		SlideInterval:   30 * time.Second,
	}
}

// Load overlays the settings from envfile and the environment. Variables already set
// in the environment take precedence over the .env file. A missing envfile is only an
// error if it was named explicitly.
func (c *Config) Load(envfile string) error {
	if envfile != "" {
		if err := godotenv.Load(envfile); err != nil {
			return fmt.Errorf("error loading %v (%v)", envfile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env (%v)", err)
	}

	str := func(key string, v *string) {
		if s, ok := os.LookupEnv(key); ok && strings.TrimSpace(s) != "" {
			*v = strings.TrimSpace(s)
		}
	}

	str("DAILYPLAN_SOURCE", &c.Source)
	str("SHAREPOINT_SITE_URL", &c.SharePoint.SiteURL)
	str("SHAREPOINT_FILE_URL", &c.SharePoint.FileURL)
	str("SHAREPOINT_USERNAME", &c.SharePoint.Username)
	str("SHAREPOINT_PASSWORD", &c.SharePoint.Password)
	str("SHAREPOINT_TENANT_ID", &c.SharePoint.TenantID)
	str("SHAREPOINT_CLIENT_ID", &c.SharePoint.ClientID)
	str("SHAREPOINT_CLIENT_SECRET", &c.SharePoint.ClientSecret)
	str("GOOGLE_CREDENTIALS", &c.Google.Credentials)
	str("GOOGLE_FILE_URL", &c.Google.FileURL)
	str("GOOGLE_TOKENS", &c.Google.Tokens)
	str("WORKBOOK_FILE", &c.File.Path)
	str("WORKBOOK_PASSWORD", &c.Password)
	str("DAILYPLAN_RENDERER", &c.Renderer)
	str("DAILYPLAN_RENDER_URL", &c.RenderURL)
	str("DAILYPLAN_RENDER_KEY", &c.RenderKey)
	str("DAILYPLAN_PAGES", &c.Pages)
	str("DAILYPLAN_WORKDIR", &c.Workdir)
	str("DAILYPLAN_BIND", &c.Bind)

	if s, ok := os.LookupEnv("DAILYPLAN_SNAPSHOT_COMMAND"); ok && strings.TrimSpace(s) != "" {
		c.SnapshotCommand = strings.Fields(s)
	}

	durations := []struct {
		key string
		v   *time.Duration
	}{
		{"DAILYPLAN_SLIDE_INTERVAL", &c.SlideInterval},
		{"DAILYPLAN_REFRESH_INTERVAL", &c.RefreshInterval},
		{"DAILYPLAN_MAX_AGE", &c.MaxAge},
		{"DAILYPLAN_SNAPSHOT_TIMEOUT", &c.SnapshotTimeout},
	}

	for _, d := range durations {
		if s, ok := os.LookupEnv(d.key); ok && strings.TrimSpace(s) != "" {
			v, err := parseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid %v %q (%v)", d.key, s, err)
			}

			*d.v = v
		}
	}

	if s, ok := os.LookupEnv("DAILYPLAN_MAX_CONNECTIONS"); ok && strings.TrimSpace(s) != "" {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid DAILYPLAN_MAX_CONNECTIONS %q (%v)", s, err)
		}

		c.MaxConnections = v
	}

	if s, ok := os.LookupEnv("DAILYPLAN_DEBUG"); ok && strings.TrimSpace(s) != "" {
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid DAILYPLAN_DEBUG %q (%v)", s, err)
		}

		c.Debug = c.Debug || v
	}

	return nil
}

// parseDuration accepts Go durations ("30s", "5m") and plain seconds ("30").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	return time.ParseDuration(s)
}

// Validate reports the first missing or invalid setting for the selected source and
// renderer.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceSharePoint:
		if c.SharePoint.SiteURL == "" {
			return fmt.Errorf("SHAREPOINT_SITE_URL is not set")
		}

		if c.SharePoint.FileURL == "" {
			return fmt.Errorf("SHAREPOINT_FILE_URL is not set")
		}

		if c.SharePoint.ClientID == "" {
			return fmt.Errorf("SHAREPOINT_CLIENT_ID is not set")
		}

		if c.SharePoint.ClientSecret == "" && (c.SharePoint.Username == "" || c.SharePoint.Password == "") {
			return fmt.Errorf("SharePoint configuration incomplete - set SHAREPOINT_CLIENT_SECRET or SHAREPOINT_USERNAME and SHAREPOINT_PASSWORD")
		}

	case SourceDrive, SourceSheets:
		if c.Google.FileURL == "" {
			return fmt.Errorf("GOOGLE_FILE_URL is not set")
		}

	case SourceFile:
		if c.File.Path == "" {
			return fmt.Errorf("WORKBOOK_FILE is not set")
		}

	default:
		return fmt.Errorf("invalid DAILYPLAN_SOURCE %q (expected %v, %v, %v or %v)", c.Source, SourceSharePoint, SourceDrive, SourceSheets, SourceFile)
	}

	switch c.Renderer {
	case RendererGrid:

	case RendererExec:
		if len(c.SnapshotCommand) == 0 {
			return fmt.Errorf("DAILYPLAN_SNAPSHOT_COMMAND is not set")
		}

	case RendererService:
		if c.RenderURL == "" {
			return fmt.Errorf("DAILYPLAN_RENDER_URL is not set")
		}

	default:
		return fmt.Errorf("invalid DAILYPLAN_RENDERER %q (expected %v, %v or %v)", c.Renderer, RendererGrid, RendererExec, RendererService)
	}

	if c.SlideInterval <= 0 {
		return fmt.Errorf("DAILYPLAN_SLIDE_INTERVAL must be positive")
	}

	if c.RefreshInterval < 0 || c.MaxAge < 0 || c.MaxConnections < 0 {
		return fmt.Errorf("DAILYPLAN_REFRESH_INTERVAL, DAILYPLAN_MAX_AGE and DAILYPLAN_MAX_CONNECTIONS must not be negative")
	}

	if c.Workdir == "" {
		return fmt.Errorf("DAILYPLAN_WORKDIR is not set")
	}

	return nil
}

// GoogleCredentials returns GOOGLE_CREDENTIALS, defaulting to .google/credentials.json
// in the working directory.
func (c *Config) GoogleCredentials() string {
	if c.Google.Credentials != "" {
		return c.Google.Credentials
	}

	return filepath.Join(c.Workdir, ".google", "credentials.json")
}

// ImageDir is where the page images are written.
func (c *Config) ImageDir() string {
	return filepath.Join(c.Workdir, "static", "images")
}

// ErrorLog is the file that collects ERROR log lines.
func (c *Config) ErrorLog() string {
	return filepath.Join(c.Workdir, "logs", "error.log")
}

// String summarises the configuration with secrets masked.
func (c *Config) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "source:%v", c.Source)

	switch c.Source {
	case SourceSharePoint:
		fmt.Fprintf(&b, " site:%v file:%v user:%v password:%v client-id:%v client-secret:%v",
			c.SharePoint.SiteURL, c.SharePoint.FileURL, c.SharePoint.Username, mask(c.SharePoint.Password), c.SharePoint.ClientID, mask(c.SharePoint.ClientSecret))
	case SourceDrive, SourceSheets:
		fmt.Fprintf(&b, " credentials:%v url:%v", c.GoogleCredentials(), c.Google.FileURL)
	case SourceFile:
		fmt.Fprintf(&b, " file:%v", c.File.Path)
	}

	fmt.Fprintf(&b, " workbook-password:%v renderer:%v pages:%v workdir:%v bind:%v slide-interval:%v refresh-interval:%v",
		mask(c.Password), c.Renderer, c.Pages, c.Workdir, c.Bind, c.SlideInterval, c.RefreshInterval)

	if c.Renderer == RendererService {
		fmt.Fprintf(&b, " render-url:%v render-key:%v", c.RenderURL, mask(c.RenderKey))
	}

	return b.String()
}

func mask(s string) string {
	if s == "" {
		return ""
	}

	return "********"
}
