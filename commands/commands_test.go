package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/oauth2"

	"github.com/dailyplan/dailyplan/acquire"
	"github.com/dailyplan/dailyplan/log"
)

func setup(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	file := filepath.Join(dir, "Plan.xlsx")

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Morning")
	f.SetCellValue("Morning", "A1", "Name")
	f.SetCellValue("Morning", "B1", "Hours")
	f.SetCellValue("Morning", "A2", "Alice Smith")
	f.SetCellValue("Morning", "B2", 7.5)

	if err := f.SaveAs(file); err != nil {
		t.Fatalf("error creating test workbook (%v)", err)
	}

	t.Chdir(dir)
	t.Setenv("DAILYPLAN_SOURCE", "file")
	t.Setenv("WORKBOOK_FILE", file)
	t.Setenv("DAILYPLAN_RENDERER", "grid")
	t.Setenv("DAILYPLAN_WORKDIR", dir)

	return dir, file
}

func TestGetWorkbook(t *testing.T) {
	dir, file := setup(t)

	cmd := Get{command: command{workdir: dir}, file: filepath.Join(dir, "out", "plan.xlsx")}
	if err := cmd.Execute(context.Background(), &Options{}); err != nil {
		t.Fatalf("Unexpected error returned from Execute (%v)", err)
	}

	expected, _ := os.ReadFile(file)
	retrieved, err := os.ReadFile(cmd.file)
	if err != nil {
		t.Fatalf("Workbook not saved (%v)", err)
	}

	if !bytes.Equal(retrieved, expected) {
		t.Errorf("Saved workbook does not match source workbook")
	}
}

func TestGetRange(t *testing.T) {
	dir, _ := setup(t)

	cmd := Get{command: command{workdir: dir}, area: "Morning!A1:H33", file: filepath.Join(dir, "morning.tsv")}
	if err := cmd.Execute(context.Background(), &Options{}); err != nil {
		t.Fatalf("Unexpected error returned from Execute (%v)", err)
	}

	tsv, err := os.ReadFile(cmd.file)
	if err != nil {
		t.Fatalf("TSV file not saved (%v)", err)
	}

	if expected := "Name\tHours\nAlice Smith\t7.5\n"; string(tsv) != expected {
		t.Errorf("Incorrect TSV file\n   expected:%q\n   got:     %q", expected, string(tsv))
	}
}

func TestGetMissingSheet(t *testing.T) {
	dir, _ := setup(t)

	cmd := Get{command: command{workdir: dir}, area: "Night!A1:H33", file: filepath.Join(dir, "night.tsv")}
	if err := cmd.Execute(context.Background(), &Options{}); err == nil {
		t.Errorf("Expected error retrieving missing worksheet")
	}

	if _, err := os.Stat(cmd.file); !os.IsNotExist(err) {
		t.Errorf("Unexpected TSV file for missing worksheet")
	}
}

func TestRender(t *testing.T) {
	dir, _ := setup(t)

	cmd := Render{command: command{workdir: dir}, area: "Morning!A1:H33", file: filepath.Join(dir, "morning.png")}
	if err := cmd.Execute(context.Background(), &Options{}); err != nil {
		t.Fatalf("Unexpected error returned from Execute (%v)", err)
	}

	f, err := os.Open(cmd.file)
	if err != nil {
		t.Fatalf("Image not rendered (%v)", err)
	}

	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Rendered file is not a PNG image (%v)", err)
	}

	if img.Bounds().Dx() != 480 || img.Bounds().Dy() != 660 {
		t.Errorf("Incorrect image size - got:%v", img.Bounds())
	}
}

func TestRenderRequiresRange(t *testing.T) {
	dir, _ := setup(t)

	cmd := Render{command: command{workdir: dir}, file: filepath.Join(dir, "morning.png")}
	if err := cmd.Execute(context.Background(), &Options{}); err == nil {
		t.Errorf("Expected error for missing --range")
	}
}

func TestAuthorise(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.FormValue("code") != "4/0AX4XfWh" {
			http.Error(w, "invalid code", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "ya29.a0AfH6SM",
			"refresh_token": "1//0gkFyW",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))

	defer tokenServer.Close()

	config := oauth2.Config{
		ClientID:     "dailyplan.apps.googleusercontent.com",
		ClientSecret: "secret",
		Scopes:       []string{acquire.DRIVE, acquire.SHEETS},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/o/oauth2/auth",
			TokenURL:  tokenServer.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("%v", err)
	}

	tokens := filepath.Join(t.TempDir(), ".google", "credentials.tokens")

	// stands in for the browser: follows the Google Sheets consent link back to the redirect URL
	browser := func(url string) error {
		go func() {
			rs, err := http.Get(url)
			if err != nil {
				t.Errorf("%v", err)
				return
			}

			page, _ := io.ReadAll(rs.Body)
			rs.Body.Close()

			match := regexp.MustCompile(`state=([0-9a-f]+)`).FindStringSubmatch(string(page))
			if match == nil || !strings.Contains(string(page), "accounts.example.com") {
				t.Errorf("Invalid authorisation page\n%s", page)
				return
			}

			redirect := fmt.Sprintf("%v/?state=%v&code=%v", strings.TrimSuffix(url, "/auth.html"), match[1], "4/0AX4XfWh")
			if rs, err := http.Get(redirect); err != nil {
				t.Errorf("%v", err)
			} else {
				rs.Body.Close()
			}
		}()

		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := authorise(ctx, &config, listener, tokens, browser, log.Discard()); err != nil {
		t.Fatalf("Unexpected error returned from authorise (%v)", err)
	}

	token, err := acquire.TokenFromFile(tokens)
	if err != nil {
		t.Fatalf("Token not cached (%v)", err)
	}

	if token.AccessToken != "ya29.a0AfH6SM" || token.RefreshToken != "1//0gkFyW" {
		t.Errorf("Incorrect cached token %+v", token)
	}
}

func TestAuthoriseRejectsInvalidState(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status := make(chan int, 1)
	browser := func(url string) error {
		go func() {
			defer cancel()

			rs, err := http.Get(strings.TrimSuffix(url, "/auth.html") + "/?state=forged&code=4/0AX4XfWh")
			if err != nil {
				status <- 0
				return
			}

			rs.Body.Close()
			status <- rs.StatusCode
		}()

		return nil
	}

	config := oauth2.Config{ClientID: "dailyplan", Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/o/oauth2/auth"}}
	tokens := filepath.Join(t.TempDir(), "credentials.tokens")

	if err := authorise(ctx, &config, listener, tokens, browser, log.Discard()); err != nil {
		t.Fatalf("Unexpected error returned from authorise (%v)", err)
	}

	if code := <-status; code != http.StatusBadRequest {
		t.Errorf("Incorrect status for forged state - expected:%v, got:%v", http.StatusBadRequest, code)
	}

	if _, err := os.Stat(tokens); !os.IsNotExist(err) {
		t.Errorf("Token cached for forged authorisation response")
	}
}
