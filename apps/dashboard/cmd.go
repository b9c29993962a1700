package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/audit"
	"github.com/trezcool/tododesk/core/session"
	"github.com/trezcool/tododesk/core/todo"
	"github.com/trezcool/tododesk/core/user"
	apisvc "github.com/trezcool/tododesk/services/api"
	notifysvc "github.com/trezcool/tododesk/services/notify"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now          // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in: run `tododesk login -username USERNAME` first")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	client *apisvc.Client
	kv     core.KVStore
	out    io.Writer
	serve  func(app *screens.App, notices *notifysvc.Recorder) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  serve                                          - start the web dashboard on server.address")
	fmt.Fprintln(cli.out, "  login -username USERNAME                       - log in; the password is prompted next")
	fmt.Fprintln(cli.out, "  register -username USERNAME -email EMAIL       - register a new user (admins only); the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                                         - log out, even if the API cannot be reached")
	fmt.Fprintln(cli.out, "  whoami                                         - show the session user")
	fmt.Fprintln(cli.out, "  stats                                          - show the dashboard overview")
	fmt.Fprintln(cli.out, "  students                                       - list the students")
	fmt.Fprintln(cli.out, "  todos [-student ID] [-status S] [-priority P]  - list the todos")
	fmt.Fprintln(cli.out, "  audit [-limit N] [-offset N]                   - list the latest changes")
	fmt.Fprintln(cli.out, "  history -table TABLE -id ID                    - show the change history of one record")
}

// newApp restores the persisted session and builds the page controllers around it.
func (cli *commandLine) newApp(notifier core.Notifier, opts screens.Options) *screens.App {
	store := session.NewStore(cli.client, cli.client, cli.kv, cli.conf.Session.Key, notifier, cli.logger)
	store.Rehydrate()
	return screens.NewApp(cli.client, store, opts, notifier, cli.logger)
}

func (cli *commandLine) options() screens.Options {
	return screens.Options{RecentLimit: cli.conf.Dashboard.RecentLimit, AuditPageSize: cli.conf.Audit.PageSize}
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	console := notifysvc.NewConsole(cli.out)

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginUname := loginCmd.String("username", "", "The user's username. The password will be prompted next.")

	registerCmd := flag.NewFlagSet("register", flag.ContinueOnError)
	registerUname := registerCmd.String("username", "", "The new user's username.")
	registerEmail := registerCmd.String("email", "", "The new user's email. The password will be prompted next.")

	todosCmd := flag.NewFlagSet("todos", flag.ContinueOnError)
	todosStudent := todosCmd.String("student", "", "Only the todos of this student ID.")
	todosStatus := todosCmd.String("status", "", "Only the todos with this status: pending, in_progress, completed or overdue.")
	todosPriority := todosCmd.String("priority", "", "Only the todos with this priority: low, medium, high or critical.")

	auditCmd := flag.NewFlagSet("audit", flag.ContinueOnError)
	auditLimit := auditCmd.Int("limit", cli.conf.Audit.PageSize, "How many changes to show.")
	auditOffset := auditCmd.Int("offset", 0, "How many of the latest changes to skip.")

	historyCmd := flag.NewFlagSet("history", flag.ContinueOnError)
	historyTable := historyCmd.String("table", "", "The table of the record: students or todos.")
	historyID := historyCmd.Int("id", 0, "The ID of the record.")

	for _, fs := range []*flag.FlagSet{loginCmd, registerCmd, todosCmd, auditCmd, historyCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "serve":
		notices := notifysvc.NewRecorder()
		return cli.serve(cli.newApp(notices, cli.options()), notices)

	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		app := cli.newApp(console, cli.options())
		return app.Session.Login(ctx, *loginUname, pwd)

	case "register":
		if err := registerCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *registerUname == "" || *registerEmail == "" {
			registerCmd.Usage()
			return errHelp
		}
		app := cli.newApp(console, cli.options())
		if err := cli.requireSession(ctx, app); err != nil {
			return err
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		reg := user.Registration{Username: *registerUname, Email: *registerEmail, Password: pwd}
		return app.Session.Register(ctx, reg)

	case "logout":
		app := cli.newApp(console, cli.options())
		app.Session.Logout(ctx)
		return nil

	case "whoami":
		app := cli.newApp(console, cli.options())
		if err := cli.requireSession(ctx, app); err != nil {
			return err
		}
		return cli.whoami(app.Session.State())

	case "stats":
		app := cli.newApp(console, cli.options())
		if err := cli.requireSession(ctx, app); err != nil {
			return err
		}
		return cli.stats(ctx, app.Dashboard)

	case "students":
		app := cli.newApp(console, cli.options())
		if err := cli.requireSession(ctx, app); err != nil {
			return err
		}
		return cli.students(ctx, app.Students)

	case "todos":
		if err := todosCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		app := cli.newApp(console, cli.options())
		if err := cli.requireSession(ctx, app); err != nil {
			return err
		}
		f := todo.Filter{StudentID: *todosStudent, Status: *todosStatus, Priority: *todosPriority}
		return cli.todos(ctx, app.Todos, f)

	case "audit":
		if err := auditCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *auditLimit < 1 || *auditOffset < 0 {
			auditCmd.Usage()
			return errHelp
		}
		opts := cli.options()
		opts.AuditPageSize = *auditLimit
		app := cli.newApp(console, opts)
		if err := cli.requireSession(ctx, app); err != nil {
			return err
		}
		return cli.audit(ctx, app.Audit, *auditOffset)

	case "history":
		if err := historyCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *historyTable == "" || *historyID < 1 {
			historyCmd.Usage()
			return errHelp
		}
		app := cli.newApp(console, cli.options())
		if err := cli.requireSession(ctx, app); err != nil {
			return err
		}
		return cli.history(ctx, app.Audit, *historyTable, *historyID)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}

// requireSession checks a restored session with the remote API, once.
func (cli *commandLine) requireSession(ctx context.Context, app *screens.App) error {
	st := app.Session.State()
	if st.Phase == session.PhaseUninitialized || st.Expired(nowFunc()) {
		app.Session.CheckSession(ctx)
		st = app.Session.State()
	}
	if !st.IsAuthenticated {
		return errNotLoggedIn
	}
	return nil
}

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
}

func (cli *commandLine) whoami(st session.State) error {
	usr := st.User
	role := "user"
	if usr.IsAdmin() {
		role = "admin"
	}
	tw := cli.table()
	fmt.Fprintf(tw, "Username:\t%s\n", usr.Username)
	fmt.Fprintf(tw, "Email:\t%s\n", usr.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", role)
	if !st.ExpiresAt.IsZero() {
		fmt.Fprintf(tw, "Session expires:\t%s\n", st.ExpiresAt.Local().Format(time.RFC1123))
	}
	return tw.Flush()
}

func (cli *commandLine) stats(ctx context.Context, screen *screens.Dashboard) error {
	if err := screen.Load(ctx); err != nil {
		return err
	}
	ov, _ := screen.Overview()
	tw := cli.table()
	fmt.Fprintf(tw, "Total todos:\t%d\n", ov.Stats.Total)
	fmt.Fprintf(tw, "Pending:\t%d\n", ov.Stats.Pending)
	fmt.Fprintf(tw, "In progress:\t%d\n", ov.Stats.InProgress)
	fmt.Fprintf(tw, "Completed:\t%d\n", ov.Stats.Completed)
	fmt.Fprintf(tw, "Overdue:\t%d\n", ov.Stats.Overdue)
	fmt.Fprintf(tw, "High priority:\t%d\n", ov.Stats.HighPriority)
	fmt.Fprintf(tw, "Students:\t%d\n", ov.StudentCount)
	fmt.Fprintln(tw, "\t")
	for _, s := range ov.Distribution {
		fmt.Fprintf(tw, "%s:\t%d (%.0f%%)\n", s.Label, s.Count, s.Percent)
	}
	if !ov.Weekly.Available {
		fmt.Fprintf(tw, "Weekly activity:\tunavailable (%s)\n", ov.Weekly.Reason)
	}
	return tw.Flush()
}

func (cli *commandLine) students(ctx context.Context, screen *screens.Students) error {
	if err := screen.Load(ctx); err != nil {
		return err
	}
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tCREATED")
	for _, s := range screen.View().Students {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Email, orDash(s.Phone.String), orDash(s.CreatedAt.Date()))
	}
	return tw.Flush()
}

func (cli *commandLine) todos(ctx context.Context, screen *screens.Todos, f todo.Filter) error {
	if err := screen.SetFilters(ctx, f); err != nil {
		return err
	}
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tTITLE\tSTUDENT\tSTATUS\tPRIORITY\tDUE")
	for _, r := range screen.View().Rows(nowFunc()) {
		status := r.Status.Label()
		if r.IsOverdue && r.Status != todo.StatusOverdue {
			status += " (overdue)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.StudentName, status, r.Priority, orDash(r.DueDate.Date()))
	}
	return tw.Flush()
}

func (cli *commandLine) audit(ctx context.Context, screen *screens.Audit, offset int) error {
	if err := screen.Load(ctx, offset); err != nil {
		return err
	}
	v := screen.View()
	tw := cli.table()
	fmt.Fprintln(tw, "WHEN\tWHO\tACTION\tRECORD\tCHANGED")
	for _, l := range v.Logs {
		printLog(tw, l)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d-%d of %d\n", min(v.Offset+1, v.Total), v.NextOffset(), v.Total)
	return nil
}

func (cli *commandLine) history(ctx context.Context, screen *screens.Audit, table string, id int) error {
	if err := screen.History(ctx, table, id); err != nil {
		return err
	}
	for _, l := range screen.View().History {
		fmt.Fprintf(cli.out, "%s  %s by %s\n", l.CreatedAt.Format(time.RFC3339), l.Action, l.Actor())
		if diff := l.Changes(); diff != "" {
			fmt.Fprintln(cli.out, diff)
		}
	}
	return nil
}

func printLog(w io.Writer, l audit.Log) {
	record := l.TableName + " #" + strconv.Itoa(l.RecordID)
	changed := "-"
	if flds := l.ChangedFields(); len(flds) > 0 {
		changed = fmt.Sprint(flds)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.CreatedAt.Format(time.RFC3339), l.Actor(), l.Action, record, changed)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
