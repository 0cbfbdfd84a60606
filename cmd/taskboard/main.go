// Package main implements the taskboard CLI: the task backend, the browser
// and terminal boards, and scriptable task commands.
package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/backend"
	"github.com/amonks/taskboard/internal/config"
	"github.com/amonks/taskboard/internal/logging"
	"github.com/amonks/taskboard/internal/paths"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "taskboard",
	Short:             "A three-lane task board",
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
}

var (
	rootAPIURL   string
	rootStateDir string
	rootLogLevel string
)

// env is the resolved configuration and logger for the running command.
var env struct {
	cfg    *config.Config
	logger *log.Logger
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootAPIURL, "api-url", "", "Task backend URL (default from config or "+config.DefaultAPIURL+")")
	flags.StringVar(&rootStateDir, "state-dir", "", "Directory holding the logged-in identity")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func loadEnvironment(cmd *cobra.Command, args []string) error {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-url") {
		cfg.Client.APIURL = rootAPIURL
	}
	if cmd.Flags().Changed("state-dir") {
		cfg.Client.StateDir = rootStateDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = rootLogLevel
	}

	logger, err := logging.New(cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	env.cfg = cfg
	env.logger = logger
	return nil
}

func newAPIClient() *backend.Client {
	return backend.NewClient(env.cfg.Client.APIURL)
}

// exitError carries a specific process exit code.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	return e.code
}

const exitNotLoggedIn = 2

func notLoggedIn() error {
	return exitError{code: exitNotLoggedIn, err: fmt.Errorf("not logged in; run `taskboard login`")}
}
