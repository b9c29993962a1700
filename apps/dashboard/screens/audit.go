package screens

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/audit"
)

type AuditView struct {
	Loaded bool
	Logs   []audit.Log
	Total  int
	Offset int
	Limit  int

	// change history of one record
	Table    string
	RecordID int
	History  []audit.Log
}

// Audit is the audit log page controller.
type Audit struct {
	api      AuditAPI
	notifier core.Notifier
	logger   core.Logger
	pageSize int

	mu   sync.Mutex
	view AuditView
}

func NewAudit(api AuditAPI, pageSize int, notifier core.Notifier, logger core.Logger) *Audit {
	return &Audit{api: api, pageSize: pageSize, notifier: notifier, logger: logger}
}

func (a *Audit) View() AuditView {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.view
	v.Logs = append([]audit.Log(nil), v.Logs...)
	v.History = append([]audit.Log(nil), v.History...)
	return v
}

// Load fetches one page of logs, starting at offset.
func (a *Audit) Load(ctx context.Context, offset int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	page, err := a.api.ListAuditLogs(ctx, audit.Query{Limit: a.pageSize, Offset: offset})
	a.view.Loaded = true
	if err != nil {
		a.view.Logs = []audit.Log{}
		a.view.Total = 0
		a.notifier.Error("Failed to load audit logs")
		a.logger.Error("Failed to fetch audit logs", errors.Wrap(err, "loading audit logs"))
		return errors.Wrap(err, "loading audit logs")
	}
	a.view.Logs = page.Items
	a.view.Total = page.Total
	a.view.Offset = offset
	a.view.Limit = a.pageSize
	return nil
}

// HasMore reports whether logs exist past the loaded page.
func (v AuditView) HasMore() bool {
	return v.Offset+len(v.Logs) < v.Total
}

func (v AuditView) NextOffset() int {
	return v.Offset + len(v.Logs)
}

func (v AuditView) PrevOffset() int {
	if prev := v.Offset - v.Limit; prev > 0 {
		return prev
	}
	return 0
}

// History fetches the change history of one record.
func (a *Audit) History(ctx context.Context, table string, recordID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	logs, err := a.api.RecordHistory(ctx, table, recordID)
	if err != nil {
		a.notifier.Error("Failed to load history")
		return errors.Wrap(err, "loading record history")
	}
	a.view.Table = table
	a.view.RecordID = recordID
	a.view.History = logs
	return nil
}

func (a *Audit) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = AuditView{}
}
