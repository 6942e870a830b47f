package tasks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"faceless-video-pipeline/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Row is one raw spreadsheet row. Index is the 1-based sheet row number
// (header row is 1, first data row is 2).
type Row struct {
	Index       int
	Title       string
	Character   string
	CoreTheme   string
	Status      string
	ContentHash string
}

// rowStore is the minimal sheet surface the task source needs. The Google
// implementation is below; tests use an in-memory fake.
type rowStore interface {
	Rows(ctx context.Context) ([]Row, error)
	WriteStatus(ctx context.Context, rowIndex int, status string) error
	WriteHash(ctx context.Context, rowIndex int, hash string) error
	Append(ctx context.Context, title, character, coreTheme string) error
}

// SheetStore reads and writes the task tab of a Google spreadsheet. Columns:
// A=title, B=character, C=core theme, D=status, E=content hash.
type SheetStore struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

func NewSheetStore(ctx context.Context, cfg *config.Config) (*SheetStore, error) {
	client := oauthClient(ctx, cfg.Secrets)
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetStore{
		svc:           svc,
		spreadsheetID: cfg.Secrets.SpreadsheetID,
		tab:           cfg.Sheet.Tab,
	}, nil
}

// oauthClient builds an HTTP client from a stored refresh token. Expiry is set
// in the past so the first request forces a token refresh.
func oauthClient(ctx context.Context, sec config.Secrets) *http.Client {
	conf := &oauth2.Config{
		ClientID:     sec.GoogleClientID,
		ClientSecret: sec.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
	tok := &oauth2.Token{
		RefreshToken: sec.GoogleRefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	return conf.Client(ctx, tok)
}

func (s *SheetStore) Rows(ctx context.Context) ([]Row, error) {
	readRange := fmt.Sprintf("%s!A2:E", s.tab)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", readRange, err)
	}

	var rows []Row
	for i, cells := range resp.Values {
		row := Row{Index: i + 2}
		if len(cells) > 0 {
			row.Title = fmt.Sprint(cells[0])
		}
		if len(cells) > 1 {
			row.Character = fmt.Sprint(cells[1])
		}
		if len(cells) > 2 {
			row.CoreTheme = fmt.Sprint(cells[2])
		}
		if len(cells) > 3 {
			row.Status = fmt.Sprint(cells[3])
		}
		if len(cells) > 4 {
			row.ContentHash = fmt.Sprint(cells[4])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SheetStore) WriteStatus(ctx context.Context, rowIndex int, status string) error {
	return s.writeCell(ctx, fmt.Sprintf("%s!D%d", s.tab, rowIndex), status)
}

func (s *SheetStore) WriteHash(ctx context.Context, rowIndex int, hash string) error {
	return s.writeCell(ctx, fmt.Sprintf("%s!E%d", s.tab, rowIndex), hash)
}

func (s *SheetStore) writeCell(ctx context.Context, cell, value string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cell, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", cell, err)
	}
	return nil
}

func (s *SheetStore) Append(ctx context.Context, title, character, coreTheme string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{title, character, coreTheme, "pending", ""}}}
	appendRange := fmt.Sprintf("%s!A:E", s.tab)
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, appendRange, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}
