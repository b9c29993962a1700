package echoui

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/assets"
	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/session"
	"github.com/trezcool/tododesk/core/todo"
	"github.com/trezcool/tododesk/core/user"
	notifysvc "github.com/trezcool/tododesk/services/notify"
)

const baseTemplate = "_base.gohtml"

// page is what every template is executed with.
type page struct {
	AppName string
	Title   string
	User    *user.User
	Notices []notifysvc.Notice
	Data    interface{}
}

type renderer struct {
	appName   string
	notices   *notifysvc.Recorder
	templates map[string]*template.Template // {name: base + page}
}

var funcs = template.FuncMap{
	"date": func(t core.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006")
	},
	"datetime": func(t core.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	"percent":          func(f float64) string { return fmt.Sprintf("%.0f%%", f) },
	"statuses":         func() []todo.Status { return todo.Statuses },
	"editableStatuses": func() []todo.Status { return todo.EditableStatuses },
	"priorities":       func() []todo.Priority { return todo.Priorities },
	"capitalize":       capitalize,
}

// newRenderer parses the embedded templates once: every page is parsed together with the base layout.
// Missing keys are errors in DEV|TEST mode.
func newRenderer(conf *core.Config, notices *notifysvc.Recorder) *renderer {
	r := &renderer{
		appName:   conf.AppName,
		notices:   notices,
		templates: make(map[string]*template.Template),
	}
	names, err := fs.Glob(assets.Templates, "templates/*.gohtml")
	if err != nil {
		panic(errors.Wrap(err, "listing templates"))
	}
	for _, name := range names {
		fname := path.Base(name)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl := template.Must(
			template.New(fname).Funcs(funcs).ParseFS(assets.Templates, "templates/"+baseTemplate, name),
		)
		if conf.Debug || conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, ctx echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	p, ok := data.(page)
	if !ok {
		p = page{Data: data}
	}
	p.AppName = r.appName
	if st, ok := ctx.Get(contextStateKey).(session.State); ok && st.IsAuthenticated {
		p.User = st.User
	}
	if r.notices != nil {
		p.Notices = r.notices.Drain()
	}
	return tmpl.ExecuteTemplate(w, "base", p)
}

func capitalize(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
