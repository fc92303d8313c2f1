package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend selects which service the client talks to.
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendPostgres Backend = "postgres"
)

const (
	defaultLockTimeout = 15 * time.Second
	defaultFeedLimit   = 200
)

// Config holds application-level configuration.
type Config struct {
	Backend     Backend
	SupabaseURL string // e.g. "https://abc.supabase.co"
	AnonKey     string // Public API key sent with every Supabase request
	DatabaseURL string // Postgres DSN for the self-hosted backend
	UserID      string // Viewer for the self-hosted backend

	StateDir    string // Holds session.db and ui_state.json
	SessionPath string
	UIStatePath string

	LockTimeout time.Duration
	FeedLimit   int
	LogFile     string
}

// Load reads configuration from environment variables.
//
//	FEEDSYNC_BACKEND             "supabase" (default) or "postgres"
//	FEEDSYNC_SUPABASE_URL        project URL, https only (supabase)
//	FEEDSYNC_SUPABASE_ANON_KEY   public anon key (supabase)
//	FEEDSYNC_DATABASE_URL        Postgres DSN (postgres)
//	FEEDSYNC_USER_ID             viewer UUID (postgres)
//	FEEDSYNC_STATE_DIR           default ~/.config/feedsync
//	FEEDSYNC_LOCK_TIMEOUT        like write deadline (default 15s)
//	FEEDSYNC_FEED_LIMIT          posts per feed load (default 200)
//	FEEDSYNC_LOG_FILE            debug log path (default: no logging)
func Load() (Config, error) {
	cfg := Config{
		Backend:     Backend(strings.ToLower(strings.TrimSpace(os.Getenv("FEEDSYNC_BACKEND")))),
		LockTimeout: defaultLockTimeout,
		FeedLimit:   defaultFeedLimit,
		LogFile:     strings.TrimSpace(os.Getenv("FEEDSYNC_LOG_FILE")),
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSupabase
	}

	switch cfg.Backend {
	case BackendSupabase:
		instance := os.Getenv("FEEDSYNC_SUPABASE_URL")
		parsed, err := url.Parse(instance)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return Config{}, fmt.Errorf("invalid FEEDSYNC_SUPABASE_URL: must be an absolute URL")
		}
		if parsed.Scheme != "https" {
			return Config{}, fmt.Errorf("invalid FEEDSYNC_SUPABASE_URL: only https is allowed")
		}
		cfg.SupabaseURL = strings.TrimRight(parsed.String(), "/")

		cfg.AnonKey = strings.TrimSpace(os.Getenv("FEEDSYNC_SUPABASE_ANON_KEY"))
		if cfg.AnonKey == "" {
			return Config{}, errors.New("FEEDSYNC_SUPABASE_ANON_KEY is required")
		}
	case BackendPostgres:
		cfg.DatabaseURL = strings.TrimSpace(os.Getenv("FEEDSYNC_DATABASE_URL"))
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("FEEDSYNC_DATABASE_URL is required for the postgres backend")
		}
		id, err := uuid.Parse(strings.TrimSpace(os.Getenv("FEEDSYNC_USER_ID")))
		if err != nil {
			return Config{}, fmt.Errorf("invalid FEEDSYNC_USER_ID: %w", err)
		}
		cfg.UserID = id.String()
	default:
		return Config{}, fmt.Errorf("invalid FEEDSYNC_BACKEND %q: want supabase or postgres", cfg.Backend)
	}

	if v := strings.TrimSpace(os.Getenv("FEEDSYNC_LOCK_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid FEEDSYNC_LOCK_TIMEOUT %q: must be a positive duration", v)
		}
		cfg.LockTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("FEEDSYNC_FEED_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid FEEDSYNC_FEED_LIMIT %q: must be a positive integer", v)
		}
		cfg.FeedLimit = n
	}

	stateDir := os.Getenv("FEEDSYNC_STATE_DIR")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".config", "feedsync")
	}
	cfg.StateDir = stateDir
	cfg.SessionPath = filepath.Join(stateDir, "session.db")
	cfg.UIStatePath = filepath.Join(stateDir, "ui_state.json")

	return cfg, nil
}

// UIState is the small set of view preferences kept between runs.
type UIState struct {
	Tab string `json:"tab,omitempty"`
}

// LoadUIState reads saved view preferences. A missing file is not an error.
func LoadUIState(path string) (UIState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return UIState{}, nil
	}
	if err != nil {
		return UIState{}, fmt.Errorf("reading ui state: %w", err)
	}
	var st UIState
	if err := json.Unmarshal(data, &st); err != nil {
		return UIState{}, fmt.Errorf("parsing ui state: %w", err)
	}
	return st, nil
}

// SaveUIState writes view preferences, creating the directory if needed.
func SaveUIState(path string, st UIState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding ui state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing ui state: %w", err)
	}
	return nil
}
