package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"habitjournal/internal/journal"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

// memSheet is an in-memory worksheet that records the calls made on it.
type memSheet struct {
	values   [][]string
	calls    []string
	failOn   string
	failWith error
}

func (m *memSheet) fail(op string) error {
	m.calls = append(m.calls, op)
	if m.failOn == op {
		return m.failWith
	}
	return nil
}

func (m *memSheet) Clear(ctx context.Context) error {
	if err := m.fail("clear"); err != nil {
		return err
	}
	m.values = nil
	return nil
}

func (m *memSheet) Records(ctx context.Context) (*journal.Table, error) {
	if err := m.fail("records"); err != nil {
		return nil, err
	}
	return TableFromValues(m.values)
}

func (m *memSheet) Overwrite(ctx context.Context, t *journal.Table) error {
	if err := m.fail("overwrite"); err != nil {
		return err
	}
	m.values = append([][]string{append([]string(nil), t.Columns...)}, t.Clone().Rows...)
	return nil
}

type memOpener struct {
	sheet *memSheet
	err   error
	url   string
	title string
}

func (o *memOpener) Open(ctx context.Context, spreadsheetURL, title string) (Worksheet, error) {
	o.url, o.title = spreadsheetURL, title
	if o.err != nil {
		return nil, o.err
	}
	return o.sheet, nil
}

type tableSource struct {
	t   *journal.Table
	err error
}

func (s tableSource) Load() (*journal.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.t.Clone(), nil
}

func localTable(situations ...string) *journal.Table {
	t := journal.NewTable(journal.ColDate, journal.ColSituation)
	for _, s := range situations {
		t.Rows = append(t.Rows, []string{"2024-05-03", s})
	}
	return t
}

func TestSync_ClearThenReadOverwritesWithLocalRows(t *testing.T) {
	sheet := &memSheet{values: [][]string{{"Date", "Situation"}, {"2024-05-01", "remote"}}}
	opener := &memOpener{sheet: sheet}
	s := NewSyncer(opener, tableSource{t: localTable("a", "b")}, Options{SpreadsheetURL: "https://x/spreadsheets/d/abc"})

	res := s.Sync(context.Background())

	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "Journal", opener.title)
	assert.Equal(t, []string{"clear", "records", "overwrite"}, sheet.calls)
	// Reading after the clear finds nothing, so only local rows remain
	want := [][]string{{"Date", "Situation"}, {"2024-05-03", "a"}, {"2024-05-03", "b"}}
	if diff := cmp.Diff(want, sheet.values); diff != "" {
		t.Errorf("sheet mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, "Data uploaded to Google Sheets successfully", res.Message())
}

func TestSync_ReadBeforeClearKeepsRemoteRowsFirst(t *testing.T) {
	sheet := &memSheet{values: [][]string{{"Date", "Situation", "Extra"}, {"2024-05-01", "remote", "x"}}}
	s := NewSyncer(&memOpener{sheet: sheet}, tableSource{t: localTable("a")}, Options{ReadBeforeClear: true})

	res := s.Sync(context.Background())

	require.True(t, res.OK(), res.Message())
	assert.Equal(t, []string{"records", "clear", "overwrite"}, sheet.calls)
	want := [][]string{
		{"Date", "Situation", "Extra"},
		{"2024-05-01", "remote", "x"},
		{"2024-05-03", "a", ""},
	}
	if diff := cmp.Diff(want, sheet.values); diff != "" {
		t.Errorf("sheet mismatch (-want +got):\n%s", diff)
	}
}

func TestSync_DuplicatesAreNotRemoved(t *testing.T) {
	sheet := &memSheet{}
	src := localTable("same", "same")

	for i := 0; i < 2; i++ {
		s := NewSyncer(&memOpener{sheet: sheet}, tableSource{t: src}, Options{ReadBeforeClear: true})
		require.True(t, s.Sync(context.Background()).OK())
	}

	// Two local duplicates, resent on top of the two already remote
	assert.Len(t, sheet.values, 5)
	for _, row := range sheet.values[1:] {
		assert.Equal(t, "same", row[1])
	}
}

func TestSync_Failures(t *testing.T) {
	tests := []struct {
		name   string
		opener *memOpener
		source tableSource
		want   Kind
		calls  []string
	}{
		{
			name:   "worksheet missing",
			opener: &memOpener{err: fmt.Errorf("open: %w", ErrWorksheetNotFound)},
			source: tableSource{t: localTable("a")},
			want:   KindNotFound,
		},
		{
			name:   "auth rejected on clear",
			opener: &memOpener{sheet: &memSheet{failOn: "clear", failWith: &googleapi.Error{Code: 403}}},
			source: tableSource{t: localTable("a")},
			want:   KindAuth,
			calls:  []string{"clear"},
		},
		{
			name:   "no local file after the clear",
			opener: &memOpener{sheet: &memSheet{}},
			source: tableSource{err: journal.ErrNoData},
			want:   KindNoLocalData,
			calls:  []string{"clear"},
		},
		{
			name:   "malformed remote rows",
			opener: &memOpener{sheet: &memSheet{failOn: "records", failWith: fmt.Errorf("%w: dup", ErrMalformedSheet)}},
			source: tableSource{t: localTable("a")},
			want:   KindMalformed,
			calls:  []string{"clear", "records"},
		},
		{
			name:   "network failure on write",
			opener: &memOpener{sheet: &memSheet{failOn: "overwrite", failWith: &url.Error{Op: "Put", URL: "https://sheets", Err: errors.New("connection refused")}}},
			source: tableSource{t: localTable("a")},
			want:   KindNetwork,
			calls:  []string{"clear", "records", "overwrite"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSyncer(tt.opener, tt.source, Options{}).Sync(context.Background())
			assert.False(t, res.OK())
			assert.Equal(t, tt.want, res.Kind, res.Err)
			assert.Error(t, res.Err)
			assert.NotEmpty(t, res.Message())
			if tt.opener.sheet != nil {
				assert.Equal(t, tt.calls, tt.opener.sheet.calls)
			}
		})
	}
}

func TestSync_Disabled(t *testing.T) {
	s := NewSyncer(nil, tableSource{t: localTable("a")}, Options{})
	assert.False(t, s.Enabled())

	res := s.Sync(context.Background())
	assert.Equal(t, KindConfig, res.Kind)
	assert.ErrorIs(t, res.Err, ErrDisabled)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindOK, Classify(nil))
	assert.Equal(t, KindAuth, Classify(fmt.Errorf("wrap: %w", &googleapi.Error{Code: 401})))
	assert.Equal(t, KindNotFound, Classify(&googleapi.Error{Code: 404}))
	assert.Equal(t, KindRemote, Classify(&googleapi.Error{Code: 500}))
	assert.Equal(t, KindNetwork, Classify(context.DeadlineExceeded))
	assert.Equal(t, KindConfig, Classify(ErrInvalidURL))
	assert.Equal(t, KindRemote, Classify(errors.New("boom")))
}

func TestTableFromValues(t *testing.T) {
	tbl, err := TableFromValues(nil)
	require.NoError(t, err)
	assert.Empty(t, tbl.Columns)

	// Header only reads as no records at all
	tbl, err = TableFromValues([][]string{{"Date", "Situation"}})
	require.NoError(t, err)
	assert.Empty(t, tbl.Columns)

	tbl, err = TableFromValues([][]string{{"Date", "Situation"}, {"2024-05-01"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2024-05-01", ""}}, tbl.Rows)

	_, err = TableFromValues([][]string{{"Date", "Date"}, {"a", "b"}})
	assert.ErrorIs(t, err, ErrMalformedSheet)

	_, err = TableFromValues([][]string{{"Date"}, {"a", "b"}})
	assert.ErrorIs(t, err, ErrMalformedSheet)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "no_local_data", KindNoLocalData.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
