package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/amonks/taskboard/internal/config"
	"github.com/amonks/taskboard/internal/testsupport"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvAPIURL,
		config.EnvStateDir,
		config.EnvWebAddr,
		config.EnvBackendAddr,
		config.EnvDatabaseURL,
		config.EnvAllowedOrigins,
		config.EnvLogLevel,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	testsupport.SetupTestHome(t)
	clearEnv(t)

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Client.APIURL != config.DefaultAPIURL {
		t.Fatalf("expected api-url %q, got %q", config.DefaultAPIURL, cfg.Client.APIURL)
	}
	if cfg.Backend.Addr != config.DefaultBackendAddr {
		t.Fatalf("expected backend addr %q, got %q", config.DefaultBackendAddr, cfg.Backend.Addr)
	}
	if cfg.Web.Addr != config.DefaultWebAddr {
		t.Fatalf("expected web addr %q, got %q", config.DefaultWebAddr, cfg.Web.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected log level info, got %q", cfg.Log.Level)
	}
	if want := []string{"http://localhost:5173"}; !reflect.DeepEqual(cfg.Backend.AllowedOrigins, want) {
		t.Fatalf("expected origins %v, got %v", want, cfg.Backend.AllowedOrigins)
	}
}

func TestLoad_ProjectConfig(t *testing.T) {
	testsupport.SetupTestHome(t)
	clearEnv(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
[client]
api-url = "http://tasks.example:9000"

[backend]
addr = ":9000"
database-url = "sqlite:///tmp/tasks.db"
allowed-origins = ["http://a.example", "http://b.example"]

[log]
level = "debug"
`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Client.APIURL != "http://tasks.example:9000" {
		t.Fatalf("expected api-url from project file, got %q", cfg.Client.APIURL)
	}
	if cfg.Backend.Addr != ":9000" {
		t.Fatalf("expected backend addr :9000, got %q", cfg.Backend.Addr)
	}
	if cfg.Backend.DatabaseURL != "sqlite:///tmp/tasks.db" {
		t.Fatalf("expected database url, got %q", cfg.Backend.DatabaseURL)
	}
	if len(cfg.Backend.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Backend.AllowedOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Log.Level)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home := testsupport.SetupTestHome(t)
	clearEnv(t)

	writeFile(t, filepath.Join(home, ".config", "taskboard", "config.toml"), `
[client]
api-url = "http://global.example"

[log]
level = "warn"
`)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
[client]
api-url = "http://project.example"
`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Client.APIURL != "http://project.example" {
		t.Fatalf("expected project api-url, got %q", cfg.Client.APIURL)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected global log level to survive, got %q", cfg.Log.Level)
	}
}

func TestLoad_DotenvAndEnvironment(t *testing.T) {
	testsupport.SetupTestHome(t)
	clearEnv(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
[client]
api-url = "http://file.example"
`)
	writeFile(t, filepath.Join(dir, ".env"), "TASKBOARD_API_URL=http://dotenv.example\nDATABASE_URL=postgres://u:p@db/tasks\n")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Client.APIURL != "http://dotenv.example" {
		t.Fatalf("expected .env to override file, got %q", cfg.Client.APIURL)
	}
	if cfg.Backend.DatabaseURL != "postgres://u:p@db/tasks" {
		t.Fatalf("expected database url from .env, got %q", cfg.Backend.DatabaseURL)
	}

	t.Setenv(config.EnvAPIURL, "http://env.example")
	t.Setenv(config.EnvAllowedOrigins, "http://x.example, ,http://y.example")
	cfg, err = config.Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Client.APIURL != "http://env.example" {
		t.Fatalf("expected environment to override .env, got %q", cfg.Client.APIURL)
	}
	if want := []string{"http://x.example", "http://y.example"}; !reflect.DeepEqual(cfg.Backend.AllowedOrigins, want) {
		t.Fatalf("expected origins %v, got %v", want, cfg.Backend.AllowedOrigins)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	testsupport.SetupTestHome(t)
	clearEnv(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "[client\napi-url = ")

	if _, err := config.Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolveDatabaseURL_DefaultsToStateDir(t *testing.T) {
	home := testsupport.SetupTestHome(t)
	clearEnv(t)

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	got, err := cfg.ResolveDatabaseURL()
	if err != nil {
		t.Fatalf("resolve database url: %v", err)
	}
	want := "sqlite://" + filepath.Join(home, ".local", "state", "taskboard", "taskboard.db")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
