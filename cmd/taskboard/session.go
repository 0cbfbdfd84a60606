package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amonks/taskboard/board"
	"github.com/amonks/taskboard/session"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and remember the identity",
	Long: `Log in with an email and password.

The password is read from --password, or prompted for when stdin is a
terminal, or read from the first line of stdin otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the logged-in identity",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var (
	loginPassword    string
	registerPassword string
	registerUsername string
	whoamiJSON       bool
)

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password")
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username (defaults to the part of the email before @)")
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Print the stored identity as JSON")
}

func openSession() (*session.Session, error) {
	dir, err := env.cfg.ResolveStateDir()
	if err != nil {
		return nil, err
	}
	sess := session.New(session.NewFileStore(dir))
	if _, err := sess.Load(); err != nil {
		return nil, err
	}
	return sess, nil
}

// openBoard returns the logged-in user's board. The board is not mounted.
func openBoard() (*board.Board, error) {
	sess, err := openSession()
	if err != nil {
		return nil, err
	}
	userID, err := sess.UserID()
	if errors.Is(err, session.ErrNotLoggedIn) {
		return nil, notLoggedIn()
	}
	if err != nil {
		return nil, err
	}
	return board.New(newAPIClient(), userID, board.Options{Logger: env.logger}), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd, loginPassword)
	if err != nil {
		return err
	}
	sess, err := openSession()
	if err != nil {
		return err
	}
	identity, err := sess.Login(cmd.Context(), newAPIClient(), strings.TrimSpace(args[0]), password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayIdentity(identity))
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd, registerPassword)
	if err != nil {
		return err
	}
	sess, err := openSession()
	if err != nil {
		return err
	}
	identity, err := session.Register(cmd.Context(), newAPIClient(), registerUsername, strings.TrimSpace(args[0]), password)
	if err != nil {
		return err
	}
	if err := sess.Save(identity); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", displayIdentity(identity))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	if err := sess.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	identity, ok := sess.Identity()
	if !ok {
		return notLoggedIn()
	}
	if whoamiJSON {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(identity.Raw))
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), displayIdentity(identity))
	return nil
}

func displayIdentity(identity session.Identity) string {
	name := identity.Username
	if name == "" {
		name = board.DefaultDisplayName
	}
	if identity.Email == "" {
		return fmt.Sprintf("%s (id %d)", name, identity.ID)
	}
	return fmt.Sprintf("%s <%s> (id %d)", name, identity.Email, identity.ID)
}

func readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if cmd.Flags().Changed("password") {
		return flagValue, nil
	}
	if file, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(password), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
