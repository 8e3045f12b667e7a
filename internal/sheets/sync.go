// Package sheets mirrors the local journal to a remote spreadsheet.
//
// A sync is a full overwrite: the worksheet is cleared, its previous rows are
// concatenated with every local row (no deduplication) and the result is
// written back from the top-left cell.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"habitjournal/internal/journal"
	"habitjournal/internal/logging"

	"google.golang.org/api/googleapi"
)

var (
	// ErrDisabled is returned when no remote spreadsheet is configured.
	ErrDisabled = errors.New("spreadsheet sync is disabled")
	// ErrInvalidURL is returned when no spreadsheet id can be found in the URL.
	ErrInvalidURL = errors.New("invalid spreadsheet url")
	// ErrWorksheetNotFound is returned when the spreadsheet has no tab with the configured title.
	ErrWorksheetNotFound = errors.New("worksheet not found")
	// ErrMalformedSheet is returned when the remote rows cannot be read as records.
	ErrMalformedSheet = errors.New("malformed worksheet")
)

// Worksheet is one tab of a remote spreadsheet.
type Worksheet interface {
	// Clear removes every value from the tab.
	Clear(ctx context.Context) error
	// Records reads the tab as a header row plus data rows.
	Records(ctx context.Context) (*journal.Table, error)
	// Overwrite writes the header and rows starting at the first cell.
	Overwrite(ctx context.Context, t *journal.Table) error
}

// Opener resolves a spreadsheet URL and worksheet title to a Worksheet.
type Opener interface {
	Open(ctx context.Context, spreadsheetURL, title string) (Worksheet, error)
}

// Source provides the local rows to sync.
type Source interface {
	Load() (*journal.Table, error)
}

// Kind classifies the outcome of a sync.
type Kind int

const (
	KindOK Kind = iota
	KindConfig
	KindNoLocalData
	KindAuth
	KindNotFound
	KindNetwork
	KindMalformed
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindConfig:
		return "config"
	case KindNoLocalData:
		return "no_local_data"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	case KindRemote:
		return "remote"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the outcome of one sync. Err is nil only for KindOK.
type Result struct {
	Kind Kind
	Rows int // rows written to the worksheet
	Err  error
}

// OK reports whether the sync completed.
func (r Result) OK() bool { return r.Kind == KindOK }

// Message is the text shown to the user.
func (r Result) Message() string {
	switch r.Kind {
	case KindOK:
		return "Data uploaded to Google Sheets successfully"
	case KindConfig:
		return fmt.Sprintf("Google Sheets sync is not configured: %v", r.Err)
	case KindNoLocalData:
		return "No local data to upload"
	case KindAuth:
		return fmt.Sprintf("Google Sheets rejected the credentials: %v", r.Err)
	case KindNotFound:
		return fmt.Sprintf("Spreadsheet or worksheet not found: %v", r.Err)
	case KindNetwork:
		return fmt.Sprintf("Could not reach Google Sheets: %v", r.Err)
	case KindMalformed:
		return fmt.Sprintf("The remote worksheet could not be read: %v", r.Err)
	}
	return fmt.Sprintf("An error occurred: %v", r.Err)
}

// Options configures a Syncer.
type Options struct {
	SpreadsheetURL string
	Worksheet      string
	// ReadBeforeClear reads the remote rows before clearing the tab, so they
	// survive into the merge. When false the rows are read after the clear.
	ReadBeforeClear bool
	Timeout         time.Duration
}

// Syncer runs the merge-and-overwrite sync.
type Syncer struct {
	opener Opener
	source Source
	opts   Options
}

// NewSyncer creates a Syncer. A nil opener yields a Syncer whose Sync
// always reports KindConfig.
func NewSyncer(opener Opener, source Source, opts Options) *Syncer {
	if opts.Worksheet == "" {
		opts.Worksheet = "Journal"
	}
	return &Syncer{opener: opener, source: source, opts: opts}
}

// Enabled reports whether a remote spreadsheet is configured.
func (s *Syncer) Enabled() bool {
	return s != nil && s.opener != nil
}

// Sync performs one full sync. There is no retry and nothing is rolled back
// on failure.
func (s *Syncer) Sync(ctx context.Context) Result {
	if !s.Enabled() {
		return Result{Kind: KindConfig, Err: ErrDisabled}
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategorySync, "sheet sync")
	res := s.sync(ctx)
	elapsed := timer.StopWithThreshold(10 * time.Second)
	logging.AuditSync(s.opts.Worksheet, res.Kind.String(), res.Rows, elapsed, res.Err)

	if res.OK() {
		logging.Sheets("synced %d rows to worksheet %q", res.Rows, s.opts.Worksheet)
	} else {
		logging.SheetsWarn("sync failed (%s): %v", res.Kind, res.Err)
	}
	return res
}

func (s *Syncer) sync(ctx context.Context) Result {
	ws, err := s.opener.Open(ctx, s.opts.SpreadsheetURL, s.opts.Worksheet)
	if err != nil {
		return failure(err)
	}

	var existing *journal.Table
	if s.opts.ReadBeforeClear {
		if existing, err = ws.Records(ctx); err != nil {
			return failure(err)
		}
	}

	if err := ws.Clear(ctx); err != nil {
		return failure(err)
	}

	local, err := s.source.Load()
	if err != nil {
		return failure(err)
	}

	if !s.opts.ReadBeforeClear {
		if existing, err = ws.Records(ctx); err != nil {
			return failure(err)
		}
	}

	merged := journal.Concat(existing, local)
	if err := ws.Overwrite(ctx, merged); err != nil {
		return failure(err)
	}
	return Result{Kind: KindOK, Rows: merged.Len()}
}

func failure(err error) Result {
	return Result{Kind: Classify(err), Err: err}
}

// Classify maps an error from a sync step to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindOK
	}

	switch {
	case errors.Is(err, journal.ErrNoData):
		return KindNoLocalData
	case errors.Is(err, ErrDisabled), errors.Is(err, ErrInvalidURL):
		return KindConfig
	case errors.Is(err, ErrWorksheetNotFound):
		return KindNotFound
	case errors.Is(err, ErrMalformedSheet):
		return KindMalformed
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return KindAuth
		case 404:
			return KindNotFound
		}
		return KindRemote
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	return KindRemote
}

// TableFromValues interprets raw cell values the way a records read does:
// the first row is the header, the rest are data rows padded to its width.
// A sheet without data rows yields a table with no columns.
func TableFromValues(values [][]string) (*journal.Table, error) {
	if len(values) < 2 {
		return &journal.Table{}, nil
	}

	header := values[0]
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return nil, fmt.Errorf("%w: header %q is not unique", ErrMalformedSheet, h)
		}
		seen[h] = true
	}

	t := journal.NewTable(header...)
	for i, row := range values[1:] {
		if len(row) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells but the header has %d", ErrMalformedSheet, i+2, len(row), len(header))
		}
		t.Rows = append(t.Rows, append([]string(nil), row...))
	}
	t.FillBlanks()
	return t, nil
}
