package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/audit"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
	"github.com/trezcool/tododesk/core/user"
)

const tokenCookie = "access_token"

// Call is one request received by the Backend.
type Call struct {
	Method    string
	Path      string
	Query     url.Values
	Body      map[string]interface{}
	RequestID string
}

type account struct {
	user     user.User
	password string
}

type failure struct {
	status int
	body   interface{}
}

// Backend is an in-memory stand-in for the remote API.
type Backend struct {
	*httptest.Server
	secret []byte

	mu       sync.Mutex
	accounts map[string]account
	students []student.Student
	todos    []todo.Todo
	logs     []audit.Log
	calls    []Call
	failures map[string]failure
	lastID   int
}

// NewBackend starts a Backend with one admin account (admin / admin123). It is closed when t ends.
func NewBackend(t *testing.T) *Backend {
	b := &Backend{
		secret:   []byte("test-secret"),
		accounts: make(map[string]account),
		failures: make(map[string]failure),
	}
	b.AddUser("admin", "admin@test.cd", "admin123", user.RoleAdmin)

	app := echo.New()
	app.HideBanner = true
	app.Use(b.record, b.inject)

	app.POST("/api/auth/login", b.login)
	api := app.Group("/api", b.authenticate)
	api.POST("/auth/register", b.register)
	api.POST("/auth/logout", b.logout)
	api.GET("/auth/verify", b.verify)
	api.GET("/students", b.listStudents)
	api.POST("/students", b.createStudent)
	api.GET("/students/:id", b.getStudent)
	api.PUT("/students/:id", b.updateStudent)
	api.DELETE("/students/:id", b.deleteStudent)
	api.GET("/todos", b.listTodos)
	api.POST("/todos", b.createTodo)
	api.GET("/todos/stats", b.stats)
	api.GET("/todos/:id", b.getTodo)
	api.PUT("/todos/:id", b.updateTodo)
	api.DELETE("/todos/:id", b.deleteTodo)
	api.GET("/audit", b.listLogs)
	api.GET("/audit/table/:table/:id", b.recordHistory)

	b.Server = httptest.NewServer(app)
	t.Cleanup(b.Close)
	return b
}

// Config returns a test configuration pointing at the Backend.
func (b *Backend) Config() *core.Config {
	conf := &core.Config{Env: "TEST", Debug: true, TestMode: true, AppName: "Tododesk", Build: "test"}
	conf.API.BaseURL = b.URL
	conf.Session.Key = "auth-storage"
	conf.Dashboard.RecentLimit = 5
	conf.Audit.PageSize = 50
	conf.Server.DisableReqLogs = true
	return conf
}

func (b *Backend) nextID() int {
	b.lastID++
	return b.lastID
}

func (b *Backend) AddUser(uname, email, pwd, role string) user.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	usr := user.User{ID: b.nextID(), Username: uname, Email: email, Role: role, CreatedAt: core.NewTime(time.Now().UTC())}
	b.accounts[uname] = account{user: usr, password: pwd}
	return usr
}

func (b *Backend) AddStudent(name, email, phone string) student.Student {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := core.NewTime(time.Now().UTC())
	s := student.Student{ID: b.nextID(), UserID: 1, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	if phone != "" {
		s.Phone = null.StringFrom(phone)
	}
	b.students = append(b.students, s)
	return s
}

func (b *Backend) AddTodo(studentID int, title string, status todo.Status, priority todo.Priority) todo.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := core.NewTime(time.Now().UTC().Add(time.Duration(len(b.todos)) * time.Second))
	t := todo.Todo{
		ID: b.nextID(), StudentID: studentID, Title: title, Status: status, Priority: priority,
		CreatedAt: now, UpdatedAt: now,
	}
	b.todos = append(b.todos, t)
	return t
}

func (b *Backend) AddLog(table, action string, recordID int, oldData, newData interface{}) audit.Log {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLog(table, action, recordID, nil, oldData, newData)
}

func (b *Backend) addLog(table, action string, recordID int, by *user.User, oldData, newData interface{}) audit.Log {
	l := audit.Log{
		ID: b.nextID(), TableName: table, Action: action, RecordID: recordID,
		OldData: toMap(oldData), NewData: toMap(newData),
		IPAddress: null.StringFrom("127.0.0.1"), CreatedAt: core.NewTime(time.Now().UTC()),
	}
	if by != nil {
		l.ChangedBy = null.IntFrom(by.ID)
		l.ChangedByUsername = null.StringFrom(by.Username)
	}
	b.logs = append(b.logs, l)
	return l
}

// Fail makes every following `method path` request answer status with {"detail": detail}.
func (b *Backend) Fail(method, path string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, body: echo.Map{"detail": detail}}
}

// FailWithError is like Fail but answers {"error": msg}.
func (b *Backend) FailWithError(method, path string, status int, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, body: echo.Map{"error": msg}}
}

// Heal cancels a Fail.
func (b *Backend) Heal(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

// Calls returns the received requests matching method and path; an empty method or path matches all.
func (b *Backend) Calls(method, path string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var calls []Call
	for _, c := range b.calls {
		if (method == "" || c.Method == method) && (path == "" || c.Path == path) {
			calls = append(calls, c)
		}
	}
	return calls
}

func (b *Backend) ResetCalls() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

func (b *Backend) Students() []student.Student {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]student.Student(nil), b.students...)
}

func (b *Backend) Todos() []todo.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]todo.Todo(nil), b.todos...)
}

// Token returns a valid access token for uname.
func (b *Backend) Token(uname string) string {
	b.mu.Lock()
	acc := b.accounts[uname]
	b.mu.Unlock()
	token, _ := b.newToken(acc.user)
	return token
}

// Middlewares

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		call := Call{
			Method:    req.Method,
			Path:      req.URL.Path,
			Query:     req.URL.Query(),
			RequestID: req.Header.Get("X-Request-ID"),
		}
		if req.Body != nil {
			data, _ := io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(data))
			if len(data) > 0 {
				_ = json.Unmarshal(data, &call.Body)
			}
		}
		b.mu.Lock()
		b.calls = append(b.calls, call)
		b.mu.Unlock()
		return next(ctx)
	}
}

func (b *Backend) inject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		b.mu.Lock()
		f, ok := b.failures[req.Method+" "+req.URL.Path]
		b.mu.Unlock()
		if ok {
			return ctx.JSON(f.status, f.body)
		}
		return next(ctx)
	}
}

func (b *Backend) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(tokenCookie)
		if err != nil || cookie.Value == "" {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
		}
		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (interface{}, error) { return b.secret, nil })
		if err != nil {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
		}
		sub, _ := claims["sub"].(string)
		b.mu.Lock()
		acc, ok := b.accounts[sub]
		b.mu.Unlock()
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
		}
		ctx.Set("user", acc.user)
		return next(ctx)
	}
}

func (b *Backend) newToken(usr user.User) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  usr.Username,
		"role": usr.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}).SignedString(b.secret)
}

func currentUser(ctx echo.Context) *user.User {
	if usr, ok := ctx.Get("user").(user.User); ok {
		return &usr
	}
	return nil
}

func pathID(ctx echo.Context) int {
	id, _ := strconv.Atoi(ctx.Param("id"))
	return id
}

func notFound(ctx echo.Context, what string) error {
	return ctx.JSON(http.StatusNotFound, echo.Map{"detail": what + " not found"})
}

func toMap(v interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	_ = json.Unmarshal(data, &m)
	return m
}

// Auth

func (b *Backend) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid body"})
	}
	b.mu.Lock()
	acc, ok := b.accounts[creds.Username]
	b.mu.Unlock()
	if !ok || acc.password != creds.Password {
		return ctx.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid credentials"})
	}
	b.mu.Lock()
	acc.user.LastLogin = core.NewTime(time.Now().UTC().Truncate(time.Second))
	b.accounts[creds.Username] = acc
	b.mu.Unlock()
	token, err := b.newToken(acc.user)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{Name: tokenCookie, Value: token, Path: "/", HttpOnly: true, MaxAge: 24 * 60 * 60})
	return ctx.JSON(http.StatusOK, echo.Map{"user": acc.user})
}

func (b *Backend) register(ctx echo.Context) error {
	if usr := currentUser(ctx); usr == nil || !usr.IsAdmin() {
		return ctx.JSON(http.StatusForbidden, echo.Map{"detail": "Only administrators can register new users"})
	}
	var reg user.Registration
	if err := ctx.Bind(&reg); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid body"})
	}
	b.mu.Lock()
	_, exists := b.accounts[reg.Username]
	b.mu.Unlock()
	if exists {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"detail": "Username already exists"})
	}
	return ctx.JSON(http.StatusOK, b.AddUser(reg.Username, reg.Email, reg.Password, user.RoleUser))
}

func (b *Backend) logout(ctx echo.Context) error {
	ctx.SetCookie(&http.Cookie{Name: tokenCookie, Value: "", Path: "/", MaxAge: -1})
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (b *Backend) verify(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"user": currentUser(ctx)})
}

// Students

type studentPayload struct {
	Name         *string `json:"student_name"`
	StudentEmail *string `json:"student_email"`
	Email        *string `json:"email"`
	StudentPhone *string `json:"student_phone"`
	Phone        *string `json:"phone"`
}

func (p studentPayload) apply(s *student.Student) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	for _, email := range []*string{p.Email, p.StudentEmail} {
		if email != nil {
			s.Email = *email
		}
	}
	for _, phone := range []*string{p.Phone, p.StudentPhone} {
		if phone != nil {
			s.Phone = null.StringFrom(*phone)
		}
	}
}

func (b *Backend) listStudents(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	students := append([]student.Student{}, b.students...)
	return ctx.JSON(http.StatusOK, students)
}

func (b *Backend) getStudent(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := core.Find(b.students, pathID(ctx)); ok {
		return ctx.JSON(http.StatusOK, s)
	}
	return notFound(ctx, "Student")
}

func (b *Backend) createStudent(ctx echo.Context) error {
	var p studentPayload
	if err := ctx.Bind(&p); err != nil || p.Name == nil {
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "student_name is required"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := core.NewTime(time.Now().UTC())
	s := student.Student{ID: b.nextID(), UserID: 1, CreatedAt: now, UpdatedAt: now}
	p.apply(&s)
	b.students = append(b.students, s)
	b.addLog("students", audit.ActionInsert, s.ID, currentUser(ctx), nil, s)
	return ctx.JSON(http.StatusOK, s)
}

func (b *Backend) updateStudent(ctx echo.Context) error {
	var p studentPayload
	if err := ctx.Bind(&p); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := core.Find(b.students, pathID(ctx))
	if !ok {
		return notFound(ctx, "Student")
	}
	s := old
	p.apply(&s)
	s.UpdatedAt = core.NewTime(time.Now().UTC())
	b.students = core.Replace(b.students, s)
	b.addLog("students", audit.ActionUpdate, s.ID, currentUser(ctx), old, s)
	return ctx.JSON(http.StatusOK, s)
}

func (b *Backend) deleteStudent(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := core.Find(b.students, pathID(ctx))
	if !ok {
		return notFound(ctx, "Student")
	}
	b.students = core.Remove(b.students, old.ID)
	b.addLog("students", audit.ActionDelete, old.ID, currentUser(ctx), old, nil)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student deleted"})
}

// Todos

type todoPayload struct {
	StudentID   *int           `json:"student_id"`
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *todo.Status   `json:"status"`
	Priority    *todo.Priority `json:"priority"`
	DueDate     *string        `json:"due_date"`
}

func (p todoPayload) apply(t *todo.Todo) {
	if p.StudentID != nil {
		t.StudentID = *p.StudentID
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = null.StringFrom(*p.Description)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate, _ = core.ParseTime(*p.DueDate)
	}
}

func (b *Backend) listTodos(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	todos := make([]todo.Todo, 0, len(b.todos))
	for _, t := range b.todos {
		if sid := ctx.QueryParam("student_id"); sid != "" && sid != strconv.Itoa(t.StudentID) {
			continue
		}
		if st := ctx.QueryParam("status"); st != "" && st != string(t.Status) {
			continue
		}
		if pr := ctx.QueryParam("priority"); pr != "" && pr != string(t.Priority) {
			continue
		}
		todos = append(todos, t)
	}
	return ctx.JSON(http.StatusOK, todos)
}

func (b *Backend) getTodo(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := core.Find(b.todos, pathID(ctx)); ok {
		return ctx.JSON(http.StatusOK, t)
	}
	return notFound(ctx, "Todo")
}

func (b *Backend) createTodo(ctx echo.Context) error {
	var p todoPayload
	if err := ctx.Bind(&p); err != nil || p.StudentID == nil || p.Title == nil {
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "student_id and title are required"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := core.NewTime(time.Now().UTC())
	t := todo.Todo{ID: b.nextID(), Status: todo.StatusPending, Priority: todo.PriorityMedium, CreatedAt: now, UpdatedAt: now}
	p.apply(&t)
	b.todos = append(b.todos, t)
	b.addLog("todos", audit.ActionInsert, t.ID, currentUser(ctx), nil, t)
	return ctx.JSON(http.StatusOK, t)
}

func (b *Backend) updateTodo(ctx echo.Context) error {
	var p todoPayload
	if err := ctx.Bind(&p); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid body"})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := core.Find(b.todos, pathID(ctx))
	if !ok {
		return notFound(ctx, "Todo")
	}
	t := old
	p.apply(&t)
	t.UpdatedAt = core.NewTime(time.Now().UTC())
	b.todos = core.Replace(b.todos, t)
	b.addLog("todos", audit.ActionUpdate, t.ID, currentUser(ctx), old, t)
	return ctx.JSON(http.StatusOK, t)
}

func (b *Backend) deleteTodo(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := core.Find(b.todos, pathID(ctx))
	if !ok {
		return notFound(ctx, "Todo")
	}
	b.todos = core.Remove(b.todos, old.ID)
	b.addLog("todos", audit.ActionDelete, old.ID, currentUser(ctx), old, nil)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Todo deleted"})
}

func (b *Backend) stats(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := map[string]int{"total": len(b.todos)}
	for _, t := range b.todos {
		counts[string(t.Status)]++
		if t.Priority == todo.PriorityHigh || t.Priority == todo.PriorityCritical {
			counts["high_priority"]++
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"total":         counts["total"],
		"pending":       counts[string(todo.StatusPending)],
		"in_progress":   counts[string(todo.StatusInProgress)],
		"completed":     counts[string(todo.StatusCompleted)],
		"overdue":       counts[string(todo.StatusOverdue)],
		"high_priority": counts["high_priority"],
	})
}

// Audit

func (b *Backend) listLogs(ctx echo.Context) error {
	limit, err := strconv.Atoi(ctx.QueryParam("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}
	offset, err := strconv.Atoi(ctx.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	logs := append([]audit.Log(nil), b.logs...)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].ID > logs[j].ID })
	total := len(logs)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ctx.JSON(http.StatusOK, echo.Map{"items": logs[offset:end], "total": total, "limit": limit, "offset": offset})
}

func (b *Backend) recordHistory(ctx echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	logs := make([]audit.Log, 0)
	for _, l := range b.logs {
		if l.TableName == ctx.Param("table") && l.RecordID == pathID(ctx) {
			logs = append(logs, l)
		}
	}
	return ctx.JSON(http.StatusOK, logs)
}
