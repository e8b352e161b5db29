package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	ports "mstore/internal/sheets"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors tables into one spreadsheet, creating tabs on demand.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu   sync.Mutex
	tabs map[string]bool
}

var _ ports.TableWriter = (*Client)(nil)

// Credentials selects the identity used to reach the Sheets API.
// A TokenFile switches to a user OAuth token obtained with mstore-oauth-init;
// otherwise a service account is used, where JSON wins over File and
// GOOGLE_APPLICATION_CREDENTIALS is read when both are empty.
type Credentials struct {
	JSON string
	File string

	OAuthClientJSON string
	OAuthClientFile string
	TokenFile       string
}

func (c Credentials) load() ([]byte, error) {
	inline := strings.TrimSpace(c.JSON)
	file := strings.TrimSpace(c.File)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c Credentials) oauthClient(ctx context.Context) (*http.Client, error) {
	cfg, err := OAuthConfig(c.OAuthClientJSON, c.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(c.TokenFile)
	if err != nil {
		return nil, err
	}
	return cfg.Client(ctx, tok), nil
}

// OAuthConfig builds the installed-app OAuth config from an inline or file
// client secret.
func OAuthConfig(clientJSON, clientFile string) (*oauth2.Config, error) {
	data := []byte(strings.TrimSpace(clientJSON))
	if len(data) == 0 {
		if strings.TrimSpace(clientFile) == "" {
			return nil, errors.New("missing OAuth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
		}
		var err error
		if data, err = os.ReadFile(clientFile); err != nil {
			return nil, fmt.Errorf("read OAuth client file: %w", err)
		}
	}
	cfg, err := googleoauth.ConfigFromJSON(data, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client: %w", err)
	}
	return cfg, nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// New creates a Sheets client authenticated with creds.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(creds.TokenFile) != "" {
		httpClient, err := creds.oauthClient(ctx)
		if err != nil {
			return nil, err
		}
		return NewWithOptions(ctx, spreadsheetID, goption.WithHTTPClient(httpClient))
	}
	credentialsJSON, err := creds.load()
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, spreadsheetID,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client with explicit API options, e.g. a custom endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, tabs: make(map[string]bool)}, nil
}

// WriteTable clears tab and writes rows from A1. Values are written RAW so
// numbers keep the exact text stored in the ledger.
func (c *Client) WriteTable(ctx context.Context, tab string, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	quoted := quoteTab(tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoted+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", tab, err)
	}

	slog.DebugContext(ctx, "Mirrored table to sheet", "tab", tab, "rows", len(rows))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tabs[tab] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.tabs[sh.Properties.Title] = true
		}
	}
	if c.tabs[tab] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Created sheet tab", "tab", tab)
	c.tabs[tab] = true
	return nil
}

// quoteTab wraps a tab name for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
