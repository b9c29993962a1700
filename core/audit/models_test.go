package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func TestLog_Changes(t *testing.T) {
	tests := []struct {
		name       string
		log        Log
		wantFields []string
		wantLines  []string
		wantEmpty  bool
	}{
		{
			name: "update",
			log: Log{
				Action:  ActionUpdate,
				OldData: map[string]interface{}{"title": "Read", "status": "pending", "student_id": float64(1)},
				NewData: map[string]interface{}{"title": "Read", "status": "completed", "student_id": float64(1)},
			},
			wantFields: []string{"status"},
			wantLines:  []string{"-status: pending", "+status: completed"},
		},
		{
			name:       "insert",
			log:        Log{Action: ActionInsert, NewData: map[string]interface{}{"title": "New"}},
			wantFields: []string{"title"},
			wantLines:  []string{"+title: New"},
		},
		{
			name:       "delete",
			log:        Log{Action: ActionDelete, OldData: map[string]interface{}{"phone": nil}},
			wantFields: nil,
			wantLines:  []string{"-phone: null"},
		},
		{name: "no data", log: Log{Action: ActionUpdate}, wantEmpty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantFields, tt.log.ChangedFields())
			changes := tt.log.Changes()
			if tt.wantEmpty {
				assert.Empty(t, changes)
				return
			}
			for _, line := range tt.wantLines {
				assert.Contains(t, changes, line)
			}
			assert.NotContains(t, changes, " title: Read")
		})
	}
}

func TestLog_Actor(t *testing.T) {
	assert.Equal(t, "admin", Log{ChangedBy: null.IntFrom(1), ChangedByUsername: null.StringFrom("admin")}.Actor())
	assert.Equal(t, "user #3", Log{ChangedBy: null.IntFrom(3)}.Actor())
	assert.Equal(t, "system", Log{}.Actor())
}

func TestQuery_Params(t *testing.T) {
	assert.Equal(t,
		map[string]string{"limit": "50", "offset": "", "table_name": "todos", "action": "UPDATE"},
		Query{Limit: 50, Table: " todos ", Action: "update"}.Params(),
	)
}

func TestPage_UnmarshalJSON(t *testing.T) {
	var p Page
	err := json.Unmarshal([]byte(`{
		"items": [{"id": 9, "table_name": "students", "record_id": 2, "action": "INSERT",
			"old_data": null, "new_data": {"student_name": "Jane"}, "changed_by": null,
			"ip_address": "127.0.0.1", "created_at": "2024-01-02T03:04:05"}],
		"total": 1, "limit": 50, "offset": 0
	}`), &p)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 1, p.Total)
	assert.Equal(t, 50, p.Limit)
	assert.Nil(t, p.Items[0].OldData)
	assert.Equal(t, "Jane", p.Items[0].NewData["student_name"])
	assert.Equal(t, "127.0.0.1", p.Items[0].IPAddress.String)
}
