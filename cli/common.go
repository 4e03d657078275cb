// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Output writer, sign-in checks, id parsing and prompts
package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/models"
	"golang.org/x/term"
)

// stdout and stdin are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// ErrNotSignedIn is returned by commands that need a user.
var ErrNotSignedIn = errors.New("not signed in (run 'ancora auth login')")

func printf(format string, args ...any) {
	_, _ = fmt.Fprintf(stdout, format, args...)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	return fs
}

func requireUser(a *app.App) (*models.Profile, error) {
	user := a.Session.Snapshot().User
	if user == nil {
		return nil, ErrNotSignedIn
	}
	return user, nil
}

// idArg parses the first positional argument as an id.
func idArg(fs *flag.FlagSet, what string) (uuid.UUID, error) {
	if fs.NArg() < 1 {
		return uuid.Nil, fmt.Errorf("%s ID is required", what)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}

// optionalID parses s, treating an empty string as no id.
func optionalID(s, what string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return &id, nil
}

// setFlags lists the flags given on the command line, so updates only
// send what the user changed.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func stringIfSet(set map[string]bool, name string, v *string) *string {
	if !set[name] {
		return nil
	}
	return v
}

func dash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func short(id uuid.UUID) string {
	return id.String()[:8]
}

// prompter reads answers from stdin, hiding input on a terminal.
type prompter struct {
	in *bufio.Reader
}

func newPrompter() *prompter {
	return &prompter{in: bufio.NewReader(stdin)}
}

func (p *prompter) secret(label string) (string, error) {
	printf("%s: ", label)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		printf("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
