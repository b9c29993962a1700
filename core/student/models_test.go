package student

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tododesk/core"
)

func TestForm_NewStudent(t *testing.T) {
	tests := []struct {
		name       string
		form       Form
		wantJSON   string
		wantFields []string
	}{
		{
			name:     "all fields",
			form:     Form{Name: " Jane Doe ", Email: "Jane@Test.cd", Phone: "0999"},
			wantJSON: `{"student_name":"Jane Doe","student_email":"jane@test.cd","student_phone":"0999"}`,
		},
		{
			name:     "empty phone is omitted",
			form:     Form{Name: "Jane", Email: "jane@test.cd", Phone: "  "},
			wantJSON: `{"student_name":"Jane","student_email":"jane@test.cd"}`,
		},
		{name: "missing name", form: Form{Email: "jane@test.cd"}, wantFields: []string{"student_name"}},
		{name: "missing email", form: Form{Name: "Jane"}, wantFields: []string{"student_email"}},
		{name: "invalid email", form: Form{Name: "Jane", Email: "lol"}, wantFields: []string{"student_email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := tt.form.NewStudent()
			if tt.wantFields != nil {
				require.Error(t, err)
				vErr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want *core.ValidationError, got %T", err)
				for _, fld := range tt.wantFields {
					assert.Contains(t, vErr.FieldMap(), fld)
				}
				return
			}
			require.NoError(t, err)
			data, err := json.Marshal(ns)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(data))
		})
	}
}

func TestForm_UpdateStudent(t *testing.T) {
	orig := Student{ID: 3, Name: "John", Email: "john@test.cd", Phone: null.StringFrom("123")}

	us, err := FormFrom(orig).UpdateStudent()
	require.NoError(t, err)
	data, err := json.Marshal(us)
	require.NoError(t, err)
	assert.JSONEq(t, `{"student_name":"John","student_email":"john@test.cd","student_phone":"123"}`, string(data))

	form := FormFrom(orig)
	form.Name = ""
	_, err = form.UpdateStudent()
	assert.Contains(t, core.TranslateErrors(err), "student_name")
}

func TestStudent_UnmarshalJSON(t *testing.T) {
	var s Student
	err := json.Unmarshal([]byte(`{
		"id": 1, "user_id": 1, "student_name": "John Doe", "email": "john@example.com",
		"phone": null, "created_at": "2024-03-01T10:20:30.123456", "updated_at": "2024-03-01T10:20:30Z"
	}`), &s)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", s.Name)
	assert.False(t, s.Phone.Valid)
	assert.False(t, s.TodoCount.Valid)
	assert.Equal(t, 2024, s.CreatedAt.Year())
	assert.Equal(t, "2024-03-01", s.UpdatedAt.Date())
}
