package raster

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

const userAgent = "dailyplan"

var contentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	".xlsb": "application/vnd.ms-excel.sheet.binary.macroEnabled.12",
}

// Service renders a range by posting the workbook to a spreadsheet rendering engine:
//
//	POST <URL>/v0/xlsx/render?address=Morning!A1:H33&format=png
type Service struct {
	URL    string
	APIKey string

	client *http.Client
	log    *log.Logger
}

func NewService(baseURL string, key string, client *http.Client, logger *log.Logger) (*Service, error) {
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid render service URL %q", baseURL)
	}

	if client == nil {
		client = http.DefaultClient
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &Service{
		URL:    strings.TrimSuffix(baseURL, "/"),
		APIKey: key,
		client: client,
		log:    logger,
	}, nil
}

func (s *Service) Name() string {
	return "service:" + s.URL
}

func (s *Service) Render(ctx context.Context, wb *workbook.Workbook, sheet string, rng string, path string) error {
	_, r, err := resolve(wb, sheet, rng)
	if err != nil {
		return err
	}

	document, err := wb.Document()
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	u, err := url.Parse(s.URL + "/v0/xlsx/render")
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	q := u.Query()
	q.Set("address", workbook.FormatAddress(sheet, r))
	q.Set("format", "png")
	u.RawQuery = q.Encode()

	rq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(document))
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	rq.Header.Set("Content-Type", contentTypes[wb.DocumentExt()])
	rq.Header.Set("Accept", "image/png")
	rq.Header.Set("User-Agent", userAgent)
	if s.APIKey != "" {
		rq.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	s.log.Debugf("POST %v (%v bytes)", u, len(document))

	rs, err := s.client.Do(rq)
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	if rs.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 256 {
			msg = msg[:256]
		}

		return &Error{Path: path, Err: fmt.Errorf("render service returned %v %v", rs.Status, msg)}
	}

	if err := verify(body); err != nil {
		return &Error{Path: path, Err: err}
	}

	return writeFile(path, body)
}
