// Package sheets implements tabular.Source and tabular.Sink on top of a
// Google Sheets spreadsheet: every worksheet is one named table.
package sheets

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/dnovoa/purchase-planner/internal/tabular"
)

// Client wraps a Sheets service scoped to a single spreadsheet.
type Client struct {
	srv           *sheets.Service
	spreadsheetID string
}

// NewClient builds a Client from service-account credentials JSON. The
// credentials are expected to be fully provisioned; no interactive flow.
func NewClient(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID must be provided")
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// ListTables returns the worksheet titles of the spreadsheet.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	resp, err := c.srv.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets(properties(title))").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list worksheets: %w", err)
	}

	names := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			names = append(names, s.Properties.Title)
		}
	}
	return names, nil
}

// ReadTable reads a whole worksheet. The first row becomes the header.
func (c *Client) ReadTable(ctx context.Context, name string) (*tabular.Table, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, name).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read worksheet %s: %w", name, err)
	}

	t := &tabular.Table{Name: name}
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// ReplaceTable clears the target worksheet (creating it when absent) and
// writes header plus rows. Old contents are always discarded.
func (c *Client) ReplaceTable(ctx context.Context, t *tabular.Table) error {
	if err := c.ensureWorksheet(ctx, t.Name); err != nil {
		return err
	}

	if _, err := c.srv.Spreadsheets.Values.Clear(c.spreadsheetID, t.Name, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("unable to clear worksheet %s: %w", t.Name, err)
	}

	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}

	if _, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, t.Name+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("unable to write worksheet %s: %w", t.Name, err)
	}
	return nil
}

func (c *Client) ensureWorksheet(ctx context.Context, name string) error {
	existing, err := c.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, n := range existing {
		if n == name {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			},
		},
	}
	if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to create worksheet %s: %w", name, err)
	}
	return nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
