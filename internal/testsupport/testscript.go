package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"github.com/amonks/taskboard/backend"
	"github.com/amonks/taskboard/task"
)

var (
	buildOnce     sync.Once
	taskboardPath string
	buildErr      error
)

// BuildTaskboard builds the taskboard binary once and returns its path.
func BuildTaskboard(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "taskboard-bin-")
		if err != nil {
			buildErr = err
			return
		}

		taskboardPath = filepath.Join(binDir, "taskboard")
		cmd := exec.Command("go", "build", "-o", taskboardPath, "./cmd/taskboard")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build taskboard: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return taskboardPath
}

// SetupScriptEnv configures the environment for a taskboard script: the
// binary path, an isolated HOME, and a backend on a fresh sqlite database
// whose URL is exported as TASKBOARD_API_URL.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("TASKBOARD", BuildTaskboard(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("NO_COLOR", "1")

	url, closeBackend, err := StartBackend(filepath.Join(env.WorkDir, "taskboard.db"))
	if err != nil {
		return err
	}
	env.Defer(closeBackend)
	env.Setenv("TASKBOARD_API_URL", url)
	return nil
}

// StartBackend serves the task API over a sqlite database at path and returns
// its URL and a function that stops it.
func StartBackend(path string) (string, func(), error) {
	store, err := backend.OpenStore(context.Background(), "sqlite://"+path)
	if err != nil {
		return "", nil, err
	}
	logger, _ := test.NewNullLogger()
	server, err := backend.NewServer(backend.ServerOptions{
		Store:    store,
		Logger:   logger,
		HashCost: bcrypt.MinCost,
	})
	if err != nil {
		_ = store.Close()
		return "", nil, err
	}
	httpServer := httptest.NewServer(server.Handler())
	return httpServer.URL, func() {
		httpServer.Close()
		_ = store.Close()
	}, nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdTaskID finds a task by title in a JSON task list and stores its ID in an env var.
func CmdTaskID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("taskid does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: taskid FILE TITLE VAR")
	}

	var items []task.Task
	data := ts.ReadFile(args[0])
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		ts.Fatalf("parse task list: %v", err)
	}

	title := args[1]
	for _, item := range items {
		if item.Title == title {
			ts.Setenv(args[2], strconv.FormatInt(item.ID, 10))
			return
		}
	}

	ts.Fatalf("task with title %q not found", title)
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
