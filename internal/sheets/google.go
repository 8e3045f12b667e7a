package sheets

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"habitjournal/internal/journal"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var spreadsheetIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]key=([a-zA-Z0-9_-]+)`),
}

// SpreadsheetID extracts the spreadsheet id from a share or edit URL.
func SpreadsheetID(rawURL string) (string, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	for _, re := range spreadsheetIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
}

// GoogleOpener opens worksheets through the Sheets v4 API.
type GoogleOpener struct {
	svc *gsheets.Service
}

// NewGoogleOpener authenticates with a service account key file.
func NewGoogleOpener(ctx context.Context, credentialsFile string) (*GoogleOpener, error) {
	return NewGoogleOpenerWithOptions(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
}

// NewGoogleOpenerWithOptions builds the Sheets client from raw client options.
func NewGoogleOpenerWithOptions(ctx context.Context, opts ...option.ClientOption) (*GoogleOpener, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &GoogleOpener{svc: svc}, nil
}

// Open resolves the URL and checks that the titled worksheet exists.
func (o *GoogleOpener) Open(ctx context.Context, spreadsheetURL, title string) (Worksheet, error) {
	id, err := SpreadsheetID(spreadsheetURL)
	if err != nil {
		return nil, err
	}

	ss, err := o.svc.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", id, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return &googleWorksheet{svc: o.svc, id: id, title: title}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in spreadsheet %s", ErrWorksheetNotFound, title, id)
}

type googleWorksheet struct {
	svc   *gsheets.Service
	id    string
	title string
}

// a1 quotes the tab title for use in an A1 range.
func (w *googleWorksheet) a1(cell string) string {
	r := "'" + strings.ReplaceAll(w.title, "'", "''") + "'"
	if cell != "" {
		r += "!" + cell
	}
	return r
}

func (w *googleWorksheet) Clear(ctx context.Context) error {
	_, err := w.svc.Spreadsheets.Values.Clear(w.id, w.a1(""), &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear worksheet: %w", err)
	}
	return nil
}

func (w *googleWorksheet) Records(ctx context.Context) (*journal.Table, error) {
	vr, err := w.svc.Spreadsheets.Values.Get(w.id, w.a1("")).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}

	values := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		values[i] = make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				values[i][j] = fmt.Sprint(cell)
			}
		}
	}
	return TableFromValues(values)
}

// Overwrite writes with the RAW input option so every cell keeps the CSV text
// and reads back unchanged; USER_ENTERED would reparse numbers and dates.
func (w *googleWorksheet) Overwrite(ctx context.Context, t *journal.Table) error {
	if len(t.Columns) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, t.Len()+1)
	values = append(values, toCells(t.Columns))
	for _, row := range t.Rows {
		values = append(values, toCells(row))
	}

	_, err := w.svc.Spreadsheets.Values.Update(w.id, w.a1("A1"), &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write worksheet: %w", err)
	}
	return nil
}

func toCells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
