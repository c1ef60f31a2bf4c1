package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Row is one data row of a worksheet, keyed by the header row.
type Row struct {
	Index int // 1-based sheet row; headers occupy row 1
	Cells map[string]string
}

// API is the spreadsheet collaborator surface the gateway builds on.
// Implemented by Client against the Google Sheets API; tests substitute an
// in-memory fake.
type API interface {
	Records(ctx context.Context, sheet string) ([]Row, error)
	ColumnValues(ctx context.Context, sheet string, column int) ([]string, error)
	AppendRow(ctx context.Context, sheet string, row []interface{}) error
	UpdateRange(ctx context.Context, rangeA1 string, values [][]interface{}) error
	BatchUpdate(ctx context.Context, requests []*sheetsapi.Request) error
	SheetID(ctx context.Context, sheet string) (int64, error)
}

// Client talks to a single spreadsheet through the Google Sheets API using
// service account credentials.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func NewClient(ctx context.Context, spreadsheetID string, serviceAccountJSON []byte) (*Client, error) {
	jwt, err := google.JWTConfigFromJSON(serviceAccountJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Records reads the whole worksheet and maps every data row onto the header
// row. Cells right of the last header are dropped; missing trailing cells
// read as empty strings.
func (c *Client) Records(ctx context.Context, sheet string) ([]Row, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}
	if len(resp.Values) < 1 {
		return nil, nil
	}
	headers := make([]string, len(resp.Values[0]))
	for i, h := range resp.Values[0] {
		headers[i] = fmt.Sprint(h)
	}
	rows := make([]Row, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		cells := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(raw) {
				cells[header] = fmt.Sprint(raw[j])
			} else {
				cells[header] = ""
			}
		}
		rows = append(rows, Row{Index: i + 2, Cells: cells})
	}
	return rows, nil
}

// ColumnValues reads a single column top to bottom, header cell included.
func (c *Client) ColumnValues(ctx context.Context, sheet string, column int) ([]string, error) {
	letter := columnLetter(column)
	rangeA1 := fmt.Sprintf("%s!%s:%s", sheet, letter, letter)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error reading column %s of sheet %q: %w", letter, sheet, err)
	}
	values := make([]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		if len(raw) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprint(raw[0]))
	}
	return values, nil
}

func (c *Client) AppendRow(ctx context.Context, sheet string, row []interface{}) error {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A1", sheet), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error appending row to sheet %q: %w", sheet, err)
	}
	return nil
}

func (c *Client) UpdateRange(ctx context.Context, rangeA1 string, values [][]interface{}) error {
	vr := &sheetsapi.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rangeA1, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error updating range %q: %w", rangeA1, err)
	}
	return nil
}

func (c *Client) BatchUpdate(ctx context.Context, requests []*sheetsapi.Request) error {
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error applying batch update: %w", err)
	}
	return nil
}

// SheetID resolves a worksheet title to its numeric sheet id.
func (c *Client) SheetID(ctx context.Context, sheet string) (int64, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("error reading spreadsheet metadata: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("worksheet %q not found in spreadsheet", sheet)
}

func columnLetter(column int) string {
	letter := ""
	for column > 0 {
		column--
		letter = string(rune('A'+column%26)) + letter
		column /= 26
	}
	return letter
}
