package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tododesk/core"
)

const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Log is one recorded change. Logs are produced and stored by the remote API only.
type Log struct {
	ID                int                    `json:"id"`
	TableName         string                 `json:"table_name"`
	Action            string                 `json:"action"`
	RecordID          int                    `json:"record_id"`
	ChangedBy         null.Int               `json:"changed_by"`
	ChangedByUsername null.String            `json:"changed_by_username"`
	OldData           map[string]interface{} `json:"old_data"`
	NewData           map[string]interface{} `json:"new_data"`
	IPAddress         null.String            `json:"ip_address"`
	CreatedAt         core.Time              `json:"created_at"`
}

func (l Log) Key() int { return l.ID }

// Actor returns who made the change, as best known.
func (l Log) Actor() string {
	if l.ChangedByUsername.Valid && l.ChangedByUsername.String != "" {
		return l.ChangedByUsername.String
	}
	if l.ChangedBy.Valid {
		return "user #" + strconv.Itoa(l.ChangedBy.Int)
	}
	return "system"
}

// Changes returns a unified diff of OldData against NewData, one "key: value" line per field.
// It returns "" when nothing changed.
func (l Log) Changes() string {
	diff := difflib.UnifiedDiff{
		A:        dataLines(l.OldData),
		B:        dataLines(l.NewData),
		FromFile: "old",
		ToFile:   "new",
		Context:  0,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// ChangedFields returns the keys whose values differ between OldData and NewData.
func (l Log) ChangedFields() []string {
	keys := make(map[string]struct{}, len(l.OldData)+len(l.NewData))
	for k := range l.OldData {
		keys[k] = struct{}{}
	}
	for k := range l.NewData {
		keys[k] = struct{}{}
	}
	var flds []string
	for k := range keys {
		if formatValue(l.OldData[k]) != formatValue(l.NewData[k]) {
			flds = append(flds, k)
		}
	}
	sort.Strings(flds)
	return flds
}

func dataLines(data map[string]interface{}) []string {
	if len(data) == 0 {
		return nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+formatValue(data[k])+"\n")
	}
	return lines
}

func formatValue(v interface{}) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Page is one page of audit logs.
// The remote API reports either page/size/pages or limit/offset, depending on the endpoint version.
type Page struct {
	Items  []Log `json:"items"`
	Total  int   `json:"total"`
	Page   int   `json:"page,omitempty"`
	Size   int   `json:"size,omitempty"`
	Pages  int   `json:"pages,omitempty"`
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
}

// Query narrows an audit log listing. Zero values mean "server default".
type Query struct {
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
	Table  string `query:"table_name"`
	Action string `query:"action"`
}

func (q Query) Params() map[string]string {
	return map[string]string{
		"limit":      itoa(q.Limit),
		"offset":     itoa(q.Offset),
		"table_name": core.CleanString(q.Table),
		"action":     strings.ToUpper(core.CleanString(q.Action)),
	}
}

func itoa(i int) string {
	if i <= 0 {
		return ""
	}
	return strconv.Itoa(i)
}
