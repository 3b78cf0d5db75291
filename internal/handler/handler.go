package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/session"
	"github.com/kazkleen/crm/internal/storage"
)

var (
	ErrUsage         = errors.New("invalid usage")
	ErrNotLoggedIn   = errors.New("please log in first")
	ErrManagerOnly   = errors.New("manager role required")
	ErrUnknownAction = errors.New("unknown command")
)

type OrderStore interface {
	Create(ctx context.Context, order storage.Order) (storage.Order, error)
	List(ctx context.Context) ([]storage.Order, error)
	FindByID(ctx context.Context, id int) (storage.Order, error)
	Complete(ctx context.Context, id int, username string) (storage.Order, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type UserStore interface {
	Authenticate(ctx context.Context, username, password string) (storage.User, error)
	Create(ctx context.Context, username, password string, role storage.Role) (storage.User, error)
	ChangePassword(ctx context.Context, username, newPassword string) error
	Delete(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]storage.User, error)
}

type SessionStore interface {
	Begin(ctx context.Context, user storage.User) (session.Session, error)
	Current(ctx context.Context) (session.Session, error)
	End(ctx context.Context) error
}

type DocumentStore interface {
	Load(ctx context.Context) (storage.Document, error)
	Save(ctx context.Context, doc storage.Document) error
}

// Handler runs one CLI command against the stores and prints to out.
type Handler struct {
	orders   OrderStore
	users    UserStore
	sessions SessionStore
	docs     DocumentStore
	out      io.Writer
	log      *zap.Logger
	timeNow  func() time.Time
}

func New(orders OrderStore, users UserStore, sessions SessionStore, docs DocumentStore, out io.Writer, log *zap.Logger) *Handler {
	return &Handler{
		orders:   orders,
		users:    users,
		sessions: sessions,
		docs:     docs,
		out:      out,
		log:      log,
		timeNow:  time.Now,
	}
}

type command struct {
	usage   string
	summary string
	manager bool
	public  bool
	run     func(h *Handler, ctx context.Context, sess session.Session, args []string) error
}

var commands = map[string]command{
	"login":       {usage: "login <username> <password>", summary: "Start a session", public: true, run: (*Handler).HandleLogin},
	"logout":      {usage: "logout", summary: "End the current session", public: true, run: (*Handler).HandleLogout},
	"whoami":      {usage: "whoami", summary: "Show the logged-in user", public: true, run: (*Handler).HandleWhoami},
	"add-order":   {usage: `add-order --client NAME [--date YYYY-MM-DD] --item "Floor|Room|Service|Qty"...`, summary: "Submit a cleaning order", run: (*Handler).HandleAddOrder},
	"list-orders": {usage: "list-orders [--last N] [--status active|completed]", summary: "List orders, newest first", run: (*Handler).HandleListOrders},
	"show":        {usage: "show <orderID>", summary: "Show an order in detail", run: (*Handler).HandleShow},
	"complete":    {usage: "complete <orderID>", summary: "Mark an order as completed", manager: true, run: (*Handler).HandleComplete},
	"delete":      {usage: "delete <orderID>", summary: "Delete an order", manager: true, run: (*Handler).HandleDelete},
	"stats":       {usage: "stats", summary: "Show dashboard figures", manager: true, run: (*Handler).HandleStats},
	"list-users":  {usage: "list-users", summary: "List user accounts", manager: true, run: (*Handler).HandleListUsers},
	"add-user":    {usage: "add-user <username> <password> <worker|manager>", summary: "Create a user account", manager: true, run: (*Handler).HandleAddUser},
	"passwd":      {usage: "passwd <username> <new-password>", summary: "Change a user's password", manager: true, run: (*Handler).HandlePasswd},
	"del-user":    {usage: "del-user <username>", summary: "Delete a user account", manager: true, run: (*Handler).HandleDeleteUser},
	"export-csv":  {usage: "export-csv [path]", summary: "Export all orders as CSV", manager: true, run: (*Handler).HandleExportCSV},
	"export-xlsx": {usage: "export-xlsx [path]", summary: "Export all orders as an Excel workbook", manager: true, run: (*Handler).HandleExportXLSX},
	"export-jpg":  {usage: "export-jpg <orderID> [path]", summary: "Render an order overview image", manager: true, run: (*Handler).HandleExportJPG},
	"import":      {usage: "import <path.csv|path.xlsx|path.xls>", summary: "Import orders from a spreadsheet", manager: true, run: (*Handler).HandleImport},
	"backup":      {usage: "backup <path.xz>", summary: "Write a compressed backup of all data", manager: true, run: (*Handler).HandleBackup},
	"restore":     {usage: "restore <path.xz>", summary: "Replace all data with a backup", manager: true, run: (*Handler).HandleRestore},
}

var commandOrder = []string{
	"login", "logout", "whoami",
	"add-order", "list-orders", "show", "complete", "delete", "stats",
	"list-users", "add-user", "passwd", "del-user",
	"export-csv", "export-xlsx", "export-jpg", "import", "backup", "restore",
}

// Run executes args[0] with the remaining arguments. Commands other than
// login, logout, whoami and help need a session; management commands need a
// manager session.
func (h *Handler) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		h.HandleHelp()
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w %q, run 'help' for a list", ErrUnknownAction, args[0])
	}

	var sess session.Session
	if !cmd.public {
		current, err := h.sessions.Current(ctx)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				return ErrNotLoggedIn
			}
			return err
		}
		if cmd.manager && !current.IsManager() {
			return ErrManagerOnly
		}
		sess = current
	}

	err := cmd.run(h, ctx, sess, args[1:])
	if errors.Is(err, ErrUsage) {
		return fmt.Errorf("%w\nusage: %s", err, cmd.usage)
	}
	return err
}

func (h *Handler) HandleHelp() {
	h.println("Available commands:")
	for _, name := range commandOrder {
		cmd := commands[name]
		role := ""
		if cmd.manager {
			role = " (manager)"
		}
		h.printf("  %-60s %s%s\n", cmd.usage, cmd.summary, role)
	}
	h.printf("  %-60s %s\n", "help", "Show this list")
}

func (h *Handler) printf(format string, args ...interface{}) {
	fmt.Fprintf(h.out, format, args...)
}

func (h *Handler) println(args ...interface{}) {
	fmt.Fprintln(h.out, args...)
}
