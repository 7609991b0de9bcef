package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

func New(ctx context.Context, serviceAccountJSONPath, spreadsheetID string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

func (c *Client) readAll(ctx context.Context, tab string) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, tab+"!A:Z").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, tab string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, tab+"!A:Z", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// updateRow overwrites the whole row so chunks left over from a longer value disappear.
func (c *Client) updateRow(ctx context.Context, tab string, rowNum int, row []interface{}) error {
	padded := make([]interface{}, maxColumns)
	for i := range padded {
		padded[i] = ""
	}
	copy(padded, row)
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{padded}}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(tab, rowNum), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (c *Client) clearRow(ctx context.Context, tab string, rowNum int) error {
	_, err := c.srv.Spreadsheets.Values.Clear(c.spreadsheetID, rowRange(tab, rowNum), &sheetsv4.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return err
}

func rowRange(tab string, rowNum int) string {
	return fmt.Sprintf("%s!A%d:Z%d", tab, rowNum, rowNum)
}
