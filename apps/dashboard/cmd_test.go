package main

import (
	"bytes"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core/todo"
	apisvc "github.com/trezcool/tododesk/services/api"
	logsvc "github.com/trezcool/tododesk/services/logger"
	notifysvc "github.com/trezcool/tododesk/services/notify"
	dummystore "github.com/trezcool/tododesk/storage/session/dummy"
	"github.com/trezcool/tododesk/tests"
)

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func setup(t *testing.T) (*testutil.Backend, *commandLine, *bytes.Buffer) {
	backend := testutil.NewBackend(t)
	logger := logsvc.NewDiscardLogger()
	client, err := apisvc.NewClient(backend.Config(), logger)
	require.NoError(t, err)

	var out bytes.Buffer
	cli := &commandLine{
		conf:   backend.Config(),
		logger: logger,
		client: client,
		kv:     dummystore.Open(),
		out:    &out,
		serve: func(*screens.App, *notifysvc.Recorder) error {
			return errors.New("serve not available in tests")
		},
	}
	return backend, cli, &out
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"tododesk"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.pwd), nil }

			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	backend, cli, out := setup(t)
	john := backend.AddStudent("John Doe", "john@test.cd", "555")
	backend.AddTodo(john.ID, "Read a book", todo.StatusPending, todo.PriorityHigh)
	backend.AddTodo(john.ID, "Write an essay", todo.StatusCompleted, todo.PriorityLow)
	backend.AddTodo(999, "Orphan", todo.StatusOverdue, todo.PriorityLow)
	backend.AddLog("students", "UPDATE", john.ID, map[string]interface{}{"phone": nil}, map[string]interface{}{"phone": "555"})

	runCLITests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "serve", args: []string{"serve"}, wantErrStr: "serve not available in tests"},
		{name: "whoami: anonymous", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "students: anonymous", args: []string{"students"}, wantErr: errNotLoggedIn},
		{name: "login: no username", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no password", args: []string{"login", "-username", "admin"}, wantErr: errHelp},
		{
			name: "login: invalid credentials", args: []string{"login", "-username", "admin"}, pwd: "lol",
			wantErrStr: "Invalid credentials", wantOut: []string{"✗ Invalid credentials"},
		},
		{
			name: "login", args: []string{"login", "-username", "admin"}, pwd: "admin123",
			wantOut: []string{"Enter password:", "✓ Login successful!"},
		},
		{name: "whoami", args: []string{"whoami"}, wantOut: []string{"admin@test.cd", "Role:", "admin"}},
		{name: "students", args: []string{"students"}, wantOut: []string{"NAME", "John Doe", "john@test.cd", "555"}},
		{name: "todos", args: []string{"todos"}, wantOut: []string{"Read a book", "Write an essay", "Orphan", "Unknown"}},
		{name: "todos: bad flag", args: []string{"todos", "-lol"}, wantErr: errHelp},
		{name: "stats", args: []string{"stats"}, wantOut: []string{"Total todos:", "Overdue:", "Students:", "Weekly activity:"}},
		{name: "audit: bad limit", args: []string{"audit", "-limit", "0"}, wantErr: errHelp},
		{name: "audit", args: []string{"audit", "-limit", "1"}, wantOut: []string{"students #", "[phone]", "1-1 of 1"}},
		{name: "history: no args", args: []string{"history"}, wantErr: errHelp},
		{name: "history", args: []string{"history", "-table", "students", "-id", "1"}},
		{
			name: "register: existing", args: []string{"register", "-username", "admin", "-email", "a@test.cd"}, pwd: "pwd",
			wantErrStr: "Username already exists", wantOut: []string{"✗ Username already exists"},
		},
		{name: "register: missing email", args: []string{"register", "-username", "tutor"}, wantErr: errHelp},
		{name: "logout", args: []string{"logout"}, wantOut: []string{"✓ Logged out"}},
		{name: "whoami: logged out", args: []string{"whoami"}, wantErr: errNotLoggedIn},
	})

	filtered := backend.Calls(http.MethodGet, "/api/audit")
	require.NotEmpty(t, filtered)
	assert.Equal(t, "1", filtered[len(filtered)-1].Query.Get("limit"))
}

func Test_commandLine_todosFilters(t *testing.T) {
	backend, cli, out := setup(t)
	john := backend.AddStudent("John Doe", "john@test.cd", "")
	backend.AddTodo(john.ID, "Read a book", todo.StatusPending, todo.PriorityHigh)
	backend.AddTodo(john.ID, "Write an essay", todo.StatusCompleted, todo.PriorityLow)

	readPasswordFunc = func(int) ([]byte, error) { return []byte("admin123"), nil }
	require.NoError(t, cli.run([]string{"tododesk", "login", "-username", "admin"}))
	backend.ResetCalls()

	out.Reset()
	require.NoError(t, cli.run([]string{"tododesk", "todos", "-status", "completed", "-student", "  "}))
	assert.Contains(t, out.String(), "Write an essay")
	assert.NotContains(t, out.String(), "Read a book")

	calls := backend.Calls(http.MethodGet, "/api/todos")
	require.Len(t, calls, 1)
	assert.Equal(t, "completed", calls[0].Query.Get("status"))
	assert.NotContains(t, calls[0].Query, "student_id", "blank filters are dropped")
	assert.NotContains(t, calls[0].Query, "priority")
}
