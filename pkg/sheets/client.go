// Package sheets provides the Google Sheets data-source client behind the
// catalog.Source interface.
package sheets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/sheetshop/catalog/pkg/catalog"
	"github.com/sheetshop/catalog/pkg/logging"
)

// Config holds the client configuration.
type Config struct {
	// SpreadsheetID identifies the source spreadsheet (REQUIRED).
	SpreadsheetID string

	// ReadRange is the sheet/tab name (or A1 range) to read. The first row
	// of the range must be the header row.
	ReadRange string

	// CredentialsFile is the path to the service-account JSON key.
	CredentialsFile string

	// Endpoint overrides the Sheets API base URL (for testing).
	Endpoint string

	// WithoutAuth disables authentication (for testing against a mock).
	WithoutAuth bool
}

// DefaultReadRange is the sheet name used when none is configured.
const DefaultReadRange = "products"

// Client reads and appends product rows via the Sheets values API.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	readRange     string
	logger        zerolog.Logger
}

var _ catalog.Source = (*Client)(nil)

// New creates a new Sheets source client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.ReadRange == "" {
		cfg.ReadRange = DefaultReadRange
	}

	var opts []option.ClientOption
	if cfg.WithoutAuth {
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gsheets.SpreadsheetsScope),
		)
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.ReadRange,
		logger:        logging.NewLogger("sheets"),
	}, nil
}

// Fetch reads all rows from the configured range and converts them to
// products. Returns a *SourceError on any API failure.
func (c *Client) Fetch(ctx context.Context) ([]catalog.Product, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).Context(ctx).Do()
	if err != nil {
		c.logger.Error().Err(err).Str("range", c.readRange).Msg("Sheet fetch failed")
		return nil, &SourceError{Op: OpFetch, Err: err}
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			if cell == nil {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}

	products := catalog.FromRecords(rows)

	c.logger.Debug().
		Int("rows", len(rows)).
		Int("products", len(products)).
		Msg("Fetched products from sheet")

	return products, nil
}

// Append adds a new product row to the end of the sheet. Columns are
// written in header order: Name, Purchase Link, Image URL, Description, Tags.
func (c *Client) Append(ctx context.Context, p catalog.NewProduct) error {
	vr := &gsheets.ValueRange{
		Values: [][]interface{}{
			{p.Name, p.PurchaseLink, p.ImageURL, p.Description, p.Tags},
		},
	}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.readRange, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		c.logger.Error().Err(err).Str("name", p.Name).Msg("Sheet append failed")
		return &SourceError{Op: OpAppend, Err: err}
	}

	c.logger.Info().Str("name", p.Name).Msg("Appended product row")
	return nil
}
