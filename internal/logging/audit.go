package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names one kind of data-changing operation.
type AuditEventType string

const (
	// Local journal file
	AuditEntryAppend   AuditEventType = "entry_append"
	AuditJournalEdit   AuditEventType = "journal_replace"
	AuditJournalClear  AuditEventType = "journal_clear"
	AuditJournalFailed AuditEventType = "journal_error"

	// Remote worksheet
	AuditSyncComplete AuditEventType = "sync_complete"
	AuditSyncFailed   AuditEventType = "sync_error"

	// Generative-text analysis
	AuditAnalysisComplete AuditEventType = "analysis_complete"
	AuditAnalysisFailed   AuditEventType = "analysis_error"
)

// AuditEvent is one line of the audit trail.
type AuditEvent struct {
	Timestamp  time.Time      `json:"ts"`
	EventType  AuditEventType `json:"event"`
	Target     string         `json:"target,omitempty"` // file path, worksheet or model
	Rows       int            `json:"rows"`
	Success    bool           `json:"success"`
	DurationMs int64          `json:"dur_ms,omitempty"`
	Kind       string         `json:"kind,omitempty"` // sync outcome kind
	Error      string         `json:"error,omitempty"`
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

var (
	auditMu  sync.Mutex
	auditOut io.WriteCloser
	auditNow = time.Now
)

// InitAudit opens path for appending JSON lines. An empty path disables the
// trail.
func InitAudit(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	useAudit(f)
	return nil
}

func useAudit(w io.WriteCloser) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditOut != nil {
		_ = auditOut.Close()
	}
	auditOut = w
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	useAudit(nil)
}

// Audit writes one event. It is a no-op until InitAudit succeeds.
func Audit(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditOut == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = auditNow().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := auditOut.Write(append(data, '\n')); err != nil {
		Get(CategoryBoot).Warn("audit write failed: %v", err)
	}
}

// =============================================================================
// CONVENIENCE RECORDERS
// =============================================================================

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AuditFileOp records a change to the local journal file.
func AuditFileOp(op AuditEventType, path string, rows int, err error) {
	if err != nil {
		op = AuditJournalFailed
	}
	Audit(AuditEvent{
		EventType: op,
		Target:    path,
		Rows:      rows,
		Success:   err == nil,
		Error:     errString(err),
	})
}

// AuditSync records the outcome of one worksheet sync.
func AuditSync(worksheet, kind string, rows int, d time.Duration, err error) {
	op := AuditSyncComplete
	if err != nil {
		op = AuditSyncFailed
	}
	Audit(AuditEvent{
		EventType:  op,
		Target:     worksheet,
		Rows:       rows,
		Success:    err == nil,
		DurationMs: d.Milliseconds(),
		Kind:       kind,
		Error:      errString(err),
	})
}

// AuditAnalysis records one analysis request.
func AuditAnalysis(model string, rows int, d time.Duration, err error) {
	op := AuditAnalysisComplete
	if err != nil {
		op = AuditAnalysisFailed
	}
	Audit(AuditEvent{
		EventType:  op,
		Target:     model,
		Rows:       rows,
		Success:    err == nil,
		DurationMs: d.Milliseconds(),
		Error:      errString(err),
	})
}
