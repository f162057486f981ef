package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

var errEmptyRange = errors.New("sheet range must not be empty")

// Repository defines the spreadsheet operations the dashboard export needs.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// Config locates the spreadsheet and the service account used to reach it.
type Config struct {
	CredentialsPath string
	SpreadsheetID   string
	// Endpoint replaces the Google API root, for emulators. No credentials
	// are sent to it.
	Endpoint string
}

// GoogleSheetRepository implements Repository on the Sheets v4 values API.
type GoogleSheetRepository struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg Config, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id must not be empty")
	}

	opts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends one row after the last filled row of sheetRange.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return errEmptyRange
	}

	_, err := r.values.Append(r.spreadsheetID, sheetRange, &sheetsapi.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange), zap.Int("cells", len(values)))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, errEmptyRange
	}
	resp, err := r.values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}
	return resp.Values, nil
}

// AppendUnique appends values to sheetRange unless a row already starts with
// values[0]. It reports whether a row was written.
func AppendUnique(ctx context.Context, repo Repository, sheetRange string, values []interface{}) (bool, error) {
	if len(values) == 0 {
		return false, errors.New("row must not be empty")
	}
	rows, err := repo.ReadRange(ctx, KeyColumn(sheetRange))
	if err != nil {
		return false, err
	}
	key := fmt.Sprint(values[0])
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == key {
			return false, nil
		}
	}
	if err := repo.WriteRow(ctx, sheetRange, values); err != nil {
		return false, err
	}
	return true, nil
}

// KeyColumn narrows an A1 range such as "Dashboard!A:L" to its first column,
// "Dashboard!A:A".
func KeyColumn(sheetRange string) string {
	sheet, cells, found := strings.Cut(sheetRange, "!")
	if !found {
		sheet, cells = "", sheetRange
	}
	first, _, _ := strings.Cut(cells, ":")
	col := strings.TrimRight(first, "0123456789")
	if col == "" {
		col = "A"
	}
	if sheet == "" {
		return col + ":" + col
	}
	return sheet + "!" + col + ":" + col
}
