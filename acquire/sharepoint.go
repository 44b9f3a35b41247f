package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

// SharePoint is a workbook kept in a SharePoint (or OneDrive for Business) document
// library, addressed by its server relative URL e.g. /personal/<user>/Documents/Plan.xlsm.
type SharePoint struct {
	SiteURL  string
	FilePath string
	Password string

	client *http.Client
	log    *log.Logger
}

// SharePointCredentials selects app-only authentication when ClientSecret is set and
// username/password authentication otherwise.
type SharePointCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

func NewSharePoint(siteURL, filePath, password string, client *http.Client, logger *log.Logger) (*SharePoint, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid SharePoint site URL %q", siteURL)
	}

	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("missing SharePoint file URL")
	}

	if client == nil {
		client = http.DefaultClient
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &SharePoint{
		SiteURL:  strings.TrimSuffix(siteURL, "/"),
		FilePath: filePath,
		Password: password,
		client:   client,
		log:      logger,
	}, nil
}

// SharePointClient returns an HTTP client that attaches Azure AD access tokens for the
// SharePoint host of siteURL.
func SharePointClient(ctx context.Context, siteURL string, credentials SharePointCredentials) (*http.Client, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid SharePoint site URL %q", siteURL)
	}

	tenant := credentials.TenantID
	if tenant == "" {
		tenant = "organizations"
	}

	endpoint := microsoft.AzureADEndpoint(tenant)
	scopes := []string{fmt.Sprintf("%s://%s/.default", u.Scheme, u.Host)}

	if credentials.ClientSecret != "" {
		config := clientcredentials.Config{
			ClientID:     credentials.ClientID,
			ClientSecret: credentials.ClientSecret,
			TokenURL:     endpoint.TokenURL,
			Scopes:       scopes,
		}

		return config.Client(ctx), nil
	}

	if credentials.Username == "" || credentials.Password == "" {
		return nil, fmt.Errorf("SharePoint username and password are required")
	}

	config := oauth2.Config{
		ClientID: credentials.ClientID,
		Endpoint: endpoint,
		Scopes:   scopes,
	}

	token, err := config.PasswordCredentialsToken(ctx, credentials.Username, credentials.Password)
	if err != nil {
		return nil, fmt.Errorf("SharePoint authentication failed (%v)", err)
	}

	return config.Client(ctx, token), nil
}

func (s *SharePoint) Name() string {
	return "sharepoint:" + s.FilePath
}

func (s *SharePoint) Fetch(ctx context.Context) (*workbook.Workbook, error) {
	s.log.Debugf("Connecting to SharePoint site %v", s.SiteURL)

	version, err := s.Version(ctx)
	if err != nil {
		return nil, err
	}

	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("/$value", nil), nil)
	if err != nil {
		return nil, fail(s.Name(), "download", err)
	}

	rs, err := s.client.Do(rq)
	if err != nil {
		return nil, fail(s.Name(), "download", err)
	}

	data, err := readBody(rs)
	if err != nil {
		return nil, fail(s.Name(), "download", err)
	}

	wb, err := workbook.Read(path.Base(s.FilePath), data, s.Password)
	if err != nil {
		return nil, fail(s.Name(), "decode", err)
	}

	wb.Version = version

	s.log.Infof("Downloaded %v from SharePoint (%v bytes)", s.FilePath, len(data))

	return wb, nil
}

// Version returns the ETag of the file, which SharePoint changes on every save.
func (s *SharePoint) Version(ctx context.Context) (string, error) {
	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("", url.Values{"$select": {"ETag,TimeLastModified"}}), nil)
	if err != nil {
		return "", fail(s.Name(), "version", err)
	}

	rq.Header.Set("Accept", "application/json;odata=nometadata")

	rs, err := s.client.Do(rq)
	if err != nil {
		return "", fail(s.Name(), "version", err)
	}

	body, err := readBody(rs)
	if err != nil {
		return "", fail(s.Name(), "version", err)
	}

	var file struct {
		ETag             string `json:"ETag"`
		TimeLastModified string `json:"TimeLastModified"`
	}

	if err := json.Unmarshal(body, &file); err != nil {
		return "", fail(s.Name(), "version", err)
	}

	if file.ETag != "" {
		return file.ETag, nil
	}

	return file.TimeLastModified, nil
}

func (s *SharePoint) endpoint(suffix string, query url.Values) string {
	q := "@f=" + url.QueryEscape("'"+strings.ReplaceAll(s.FilePath, "'", "''")+"'")
	if len(query) > 0 {
		q += "&" + query.Encode()
	}

	return s.SiteURL + "/_api/web/GetFileByServerRelativeUrl(@f)" + suffix + "?" + q
}
