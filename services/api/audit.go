package apisvc

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sendgrid/rest"

	"github.com/trezcool/tododesk/core/audit"
)

const auditPath = "/api/audit"

func (c *Client) ListAuditLogs(ctx context.Context, q audit.Query) (audit.Page, error) {
	var page audit.Page
	if err := c.send(ctx, rest.Get, auditPath, q.Params(), nil, &page); err != nil {
		return audit.Page{}, err
	}
	if page.Items == nil {
		page.Items = []audit.Log{}
	}
	return page, nil
}

// RecordHistory lists the changes recorded for one row of table.
func (c *Client) RecordHistory(ctx context.Context, table string, recordID int) ([]audit.Log, error) {
	logs := make([]audit.Log, 0)
	path := auditPath + "/table/" + url.PathEscape(table) + "/" + strconv.Itoa(recordID)
	if err := c.send(ctx, rest.Get, path, nil, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
