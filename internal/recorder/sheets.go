package recorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// WorksheetLayout names one worksheet per day.
const WorksheetLayout = "02-01-2006"

const (
	newSheetRows    = 1000
	newSheetColumns = 25
)

// valueInput stores cells as typed so phone numbers keep their leading zero.
const valueInput = "RAW"

var errSpreadsheetNotFound = errors.New("spreadsheet not found")

// sheetClient is the part of the Sheets API the recorder needs.
type sheetClient interface {
	Titles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
	AppendRows(ctx context.Context, title string, rows [][]any, input string) error
}

// Sheets appends rows to a daily worksheet of a Google spreadsheet. The
// worksheet is created with a header row on first use.
type Sheets struct {
	client   sheetClient
	now      func() time.Time
	location *time.Location
	logger   *zap.Logger
}

// SheetsConfig locates the spreadsheet. ID wins over Name; Name is resolved
// through Drive.
type SheetsConfig struct {
	SpreadsheetID string
	Name          string
	// CredentialsJSON is the service account key.
	CredentialsJSON []byte
	Location        *time.Location
}

// NewSheets authenticates with the service account and resolves the
// spreadsheet.
func NewSheets(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*Sheets, error) {
	creds := option.WithCredentialsJSON(cfg.CredentialsJSON)

	svc, err := sheets.NewService(ctx, creds, option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	id := cfg.SpreadsheetID
	if id == "" {
		driveSvc, err := drive.NewService(ctx, creds, option.WithScopes(drive.DriveReadonlyScope))
		if err != nil {
			return nil, fmt.Errorf("failed to create drive service: %w", err)
		}
		if id, err = findSpreadsheet(ctx, driveSvc, cfg.Name); err != nil {
			return nil, err
		}
	}

	return newSheets(&googleSheet{svc: svc, id: id}, cfg.Location, time.Now, logger), nil
}

func newSheets(client sheetClient, loc *time.Location, now func() time.Time, logger *zap.Logger) *Sheets {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sheets{client: client, now: now, location: loc, logger: logger}
}

func (s *Sheets) Name() string { return "sheets" }

// Append writes records to today's worksheet.
func (s *Sheets) Append(ctx context.Context, records []*candidate.Record) error {
	if len(records) == 0 {
		return nil
	}

	title := s.now().In(s.location).Format(WorksheetLayout)
	if err := s.ensureWorksheet(ctx, title); err != nil {
		return err
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, toCells(r.Row()))
	}
	if err := s.client.AppendRows(ctx, title, rows, valueInput); err != nil {
		return fmt.Errorf("appending to worksheet %s: %w", title, err)
	}

	s.logger.Info("sheet updated", zap.String("worksheet", title), zap.Int("rows", len(rows)))
	return nil
}

func (s *Sheets) ensureWorksheet(ctx context.Context, title string) error {
	titles, err := s.client.Titles(ctx)
	if err != nil {
		return fmt.Errorf("listing worksheets: %w", err)
	}
	for _, t := range titles {
		if t == title {
			return nil
		}
	}

	if err := s.client.AddSheet(ctx, title); err != nil {
		return fmt.Errorf("adding worksheet %s: %w", title, err)
	}
	if err := s.client.AppendRows(ctx, title, [][]any{toCells(candidate.Headers)}, valueInput); err != nil {
		return fmt.Errorf("writing header to %s: %w", title, err)
	}
	s.logger.Info("worksheet created", zap.String("worksheet", title))
	return nil
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func findSpreadsheet(ctx context.Context, svc *drive.Service, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: neither id nor name configured", errSpreadsheetNotFound)
	}

	q := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`))
	res, err := svc.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("searching spreadsheet %q: %w", name, err)
	}
	if len(res.Files) == 0 {
		return "", fmt.Errorf("%w: %q", errSpreadsheetNotFound, name)
	}
	return res.Files[0].Id, nil
}

type googleSheet struct {
	svc *sheets.Service
	id  string
}

func (g *googleSheet) Titles(ctx context.Context) ([]string, error) {
	ss, err := g.svc.Spreadsheets.Get(g.id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (g *googleSheet) AddSheet(ctx context.Context, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
					GridProperties: &sheets.GridProperties{
						RowCount:    newSheetRows,
						ColumnCount: newSheetColumns,
					},
				},
			},
		}},
	}
	_, err := g.svc.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do()
	return err
}

func (g *googleSheet) AppendRows(ctx context.Context, title string, rows [][]any, input string) error {
	_, err := g.svc.Spreadsheets.Values.
		Append(g.id, fmt.Sprintf("'%s'!A1", title), &sheets.ValueRange{Values: rows}).
		ValueInputOption(input).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
