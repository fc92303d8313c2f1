package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/infra/auth"
	"github.com/CrestNiraj12/feedsync/infra/config"
	"github.com/CrestNiraj12/feedsync/infra/editor"
	"github.com/CrestNiraj12/feedsync/infra/localstore"
	"github.com/CrestNiraj12/feedsync/infra/postgres"
	"github.com/CrestNiraj12/feedsync/infra/realtime"
	"github.com/CrestNiraj12/feedsync/infra/supabase"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cliMode int

const (
	cliRun cliMode = iota
	cliVersion
	cliHelp
	cliLogin
	cliLogout
	cliMigrate
	cliInvalid
)

// parseCLIArgs returns the mode and its argument: the email for login, the
// error text for an invalid command line.
func parseCLIArgs(args []string) (cliMode, string) {
	if len(args) == 0 {
		return cliRun, ""
	}

	switch args[0] {
	case "--version", "-version", "-v":
		return cliVersion, ""
	case "--help", "-h", "help":
		return cliHelp, ""
	case "login":
		if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
			return cliInvalid, "login needs exactly one email address"
		}
		return cliLogin, strings.TrimSpace(args[1])
	case "logout":
		return cliLogout, ""
	case "migrate":
		return cliMigrate, ""
	default:
		return cliInvalid, fmt.Sprintf("unexpected argument: %s", strings.Join(args, " "))
	}
}

func usage() string {
	return `Usage: feedsync [--version|-v] [--help|-h]
       feedsync login <email>   sign in (password is read from stdin)
       feedsync logout          sign out and forget the session
       feedsync migrate         apply the schema (postgres backend)`
}

func resolveVersionInfo(v, c, d, moduleVersion string, settings map[string]string) (string, string, string) {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	if c == "none" {
		rev := strings.TrimSpace(settings["vcs.revision"])
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			c = rev
		}
	}
	if d == "unknown" {
		t := strings.TrimSpace(settings["vcs.time"])
		if t != "" {
			d = t
		}
	}
	return v, c, d
}

func buildSettingsMap(in []debug.BuildSetting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func resolvedRuntimeVersionInfo(v, c, d string) (string, string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v, c, d
	}
	return resolveVersionInfo(v, c, d, info.Main.Version, buildSettingsMap(info.Settings))
}

// newLogger writes to path, or nowhere when path is empty. The TUI owns
// the terminal, so logs never go to stderr while it runs.
func newLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
		Prefix:          "feedsync",
	})
	return logger, func() { f.Close() }, nil
}

// staticViewer is the fixed viewer of the self-hosted backend.
type staticViewer string

func (v staticViewer) CurrentUserID(context.Context) (string, error) {
	return string(v), nil
}

// services is everything the engine and TUI read from one backend.
type services struct {
	auth     app.AuthService
	remote   app.RemoteData
	feed     app.FeedService
	board    app.LeaderboardService
	notes    app.NotificationService
	realtime app.Realtime
	close    func()
}

func openSupabase(cfg config.Config, logger *log.Logger) (services, *auth.SessionProvider, *auth.GoTrue, error) {
	store, err := localstore.Open(cfg.SessionPath)
	if err != nil {
		return services{}, nil, nil, err
	}
	gotrue := auth.NewGoTrue(cfg.SupabaseURL, cfg.AnonKey)
	sessions := auth.NewSessionProvider(store, gotrue)
	client := supabase.NewClient(cfg.SupabaseURL, cfg.AnonKey, sessions)

	rt, err := realtime.New(cfg.SupabaseURL, cfg.AnonKey, sessions, realtime.WithLogger(logger))
	if err != nil {
		store.Close()
		return services{}, nil, nil, err
	}

	return services{
		auth:     sessions,
		remote:   supabase.NewRemoteData(client),
		feed:     supabase.NewFeedService(client),
		board:    supabase.NewLeaderboardService(client),
		notes:    supabase.NewNotificationService(client),
		realtime: rt,
		close:    func() { store.Close() },
	}, sessions, gotrue, nil
}

func openPostgres(ctx context.Context, cfg config.Config, logger *log.Logger) (services, error) {
	store, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return services{}, err
	}
	return services{
		auth:     staticViewer(cfg.UserID),
		remote:   store,
		feed:     store,
		board:    store,
		notes:    store,
		realtime: store,
		close:    store.Close,
	}, nil
}

func readPassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func login(ctx context.Context, cfg config.Config, logger *log.Logger, email string, in io.Reader, out io.Writer) error {
	if cfg.Backend != config.BackendSupabase {
		return errors.New("login is only used with the supabase backend")
	}
	svc, sessions, gotrue, err := openSupabase(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	fmt.Fprint(out, "Password: ")
	password, err := readPassword(in)
	if err != nil {
		return err
	}
	session, err := gotrue.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	if err := sessions.Save(ctx, session); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSigned in as %s.\n", email)
	return nil
}

func logout(ctx context.Context, cfg config.Config, logger *log.Logger, out io.Writer) error {
	if cfg.Backend != config.BackendSupabase {
		return errors.New("logout is only used with the supabase backend")
	}
	svc, sessions, gotrue, err := openSupabase(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	if s, ok, err := sessions.Current(ctx); err == nil && ok {
		if err := gotrue.SignOut(ctx, s.AccessToken); err != nil {
			// The local session is cleared regardless.
			logger.Warn("remote sign-out failed", "err", err)
		}
	}
	if err := sessions.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Signed out.")
	return nil
}

func fatal(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	os.Exit(1)
}

func main() {
	mode, arg := parseCLIArgs(os.Args[1:])
	switch mode {
	case cliVersion:
		v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
		fmt.Printf("feedsync %s\ncommit: %s\nbuilt: %s\n", v, c, d)
		return
	case cliHelp:
		fmt.Println(usage())
		return
	case cliInvalid:
		fmt.Fprintf(os.Stderr, "%s\n%s\n", arg, usage())
		os.Exit(2)
	}

	// 1. Load config from environment.
	cfg, err := config.Load()
	if err != nil {
		fatal("config", err)
	}
	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		fatal("log", err)
	}
	defer closeLog()

	ctx := context.Background()

	// 2. One-shot commands.
	switch mode {
	case cliLogin:
		if err := login(ctx, cfg, logger, arg, os.Stdin, os.Stdout); err != nil {
			fatal("login", err)
		}
		return
	case cliLogout:
		if err := logout(ctx, cfg, logger, os.Stdout); err != nil {
			fatal("logout", err)
		}
		return
	case cliMigrate:
		if cfg.Backend != config.BackendPostgres {
			fatal("migrate", errors.New("migrations are only run against the postgres backend"))
		}
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			fatal("migrate", err)
		}
		fmt.Println("Schema is up to date.")
		return
	}

	// 3. Build the backend services.
	var svc services
	switch cfg.Backend {
	case config.BackendPostgres:
		svc, err = openPostgres(ctx, cfg, logger)
	default:
		svc, _, _, err = openSupabase(cfg, logger)
	}
	if err != nil {
		fatal("backend", err)
	}
	defer svc.close()

	// 4. The engine shared by every view.
	engine := reconcile.New(svc.auth, svc.remote,
		reconcile.WithLockTimeout(cfg.LockTimeout),
		reconcile.WithLogger(logger),
	)

	uiState, err := config.LoadUIState(cfg.UIStatePath)
	if err != nil {
		logger.Warn("ignoring ui state", "err", err)
	}

	// 5. Wire root TUI model.
	root := tui.NewApp(tui.Deps{
		Engine:        engine,
		Auth:          svc.auth,
		Feed:          svc.feed,
		Leaderboard:   svc.board,
		Notifications: svc.notes,
		Realtime:      svc.realtime,
		Editor:        editor.NewEnvEditor(),
		FeedLimit:     cfg.FeedLimit,
		InitialTab:    uiState.Tab,
		UIStatePath:   cfg.UIStatePath,
		Logger:        logger,
	})

	// 6. Run.
	p := tea.NewProgram(root, tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(tui.App); ok {
		m.Close()
	}
	if err != nil {
		logger.Error("program exited", "err", err)
		fatal("error", err)
	}
}
