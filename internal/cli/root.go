// Package cli wires the calassist commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systematicmess/calendar-assistant/internal/bootstrap"
	"github.com/systematicmess/calendar-assistant/internal/config"
	"github.com/systematicmess/calendar-assistant/internal/navigation"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
	"github.com/systematicmess/calendar-assistant/internal/tracer"
	"github.com/systematicmess/calendar-assistant/internal/view"
)

var (
	version = "dev"
	commit  = "unknown"
)

// runtime is built once per invocation, before the command runs.
type runtime struct {
	cfg            *config.Config
	log            logger.ILogger
	container      *bootstrap.Container
	shutdownTracer func(context.Context) error
}

type rootOptions struct {
	verbose bool
	opener  navigation.Opener
	in      io.Reader
}

type Option func(*rootOptions)

// WithOpener replaces the system browser.
func WithOpener(open navigation.Opener) Option {
	return func(o *rootOptions) { o.opener = open }
}

// WithInput replaces stdin for interactive commands.
func WithInput(in io.Reader) Option {
	return func(o *rootOptions) { o.in = in }
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &rootOptions{opener: navigation.OpenInBrowser}
	for _, opt := range opts {
		opt(o)
	}
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "calassist",
		Short: "Terminal client for the calendar assistant",
		Long: `calassist signs you in with Google through the calendar-assistant back-end,
shows your agenda and lets you chat with the assistant.

Quick Start:
  calassist login          # sign in through the browser
  calassist agenda         # meetings of the last week up to tomorrow
  calassist chat           # talk to the assistant`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd, o)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.teardown()
		},
	}
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose logging")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newStatusCmd(rt),
		newAgendaCmd(rt),
		newChatCmd(rt, o),
		newLogsCmd(rt),
	)
	return root
}

// Execute runs the command tree against os.Args and reports the exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (rt *runtime) setup(cmd *cobra.Command, o *rootOptions) error {
	if rt.container != nil {
		return nil
	}
	rt.cfg = config.Load()

	// The chat REPL owns the terminal: log to the file only.
	if cmd.Name() == "chat" {
		rt.log = logger.NewIsolatedLogger(rt.cfg.App.LogFilePath)
	} else {
		rt.log = logger.NewZapLogger(rt.cfg.App.LogFilePath, rt.cfg.IsProduction(), o.verbose)
	}

	rt.shutdownTracer = tracer.InitTracer(cmd.Context(), rt.cfg.Tracing, rt.log)

	c, err := bootstrap.NewContainer(cmd.Context(), rt.cfg, rt.log, bootstrap.WithOpener(o.opener))
	if err != nil {
		return err
	}
	rt.container = c

	errOut := cmd.ErrOrStderr()
	c.Router.OnNavigate(func(target string) {
		switch {
		case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
			view.Notice(errOut, "Opening %s", target)
		case target == navigation.RouteLogin && cmd.Name() != "login":
			view.Notice(errOut, "Signed out. Run `calassist login` to sign in.")
		}
	})
	return nil
}

func (rt *runtime) teardown() error {
	if rt.shutdownTracer != nil {
		_ = rt.shutdownTracer(context.Background())
	}
	if rt.log != nil {
		_ = rt.log.Sync()
	}
	return nil
}
