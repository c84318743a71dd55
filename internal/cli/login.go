package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/systematicmess/calendar-assistant/internal/server"
	"github.com/systematicmess/calendar-assistant/internal/service"
	"github.com/systematicmess/calendar-assistant/internal/view"
)

var errSignInIncomplete = errors.New("sign-in did not complete")

func newLoginCmd(rt *runtime) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google",
		Long: `Opens the Google consent screen in your browser and waits for the back-end
to redirect back to the local callback listener (CALLBACK_ADDR).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rt.container
			out := cmd.OutOrStdout()

			if _, ok := c.Sessions.Current(); ok && !force {
				view.Notice(out, "Already signed in. Use --force to sign in again.")
				return nil
			}

			// Bind before the browser opens so the redirect cannot race the listener.
			ln, err := net.Listen("tcp", rt.cfg.App.CallbackAddr)
			if err != nil {
				return fmt.Errorf("start callback listener on %s: %w", rt.cfg.App.CallbackAddr, err)
			}
			srv := server.New(rt.cfg, c)
			serveErr := make(chan error, 1)
			go func() { serveErr <- srv.Serve(ln) }()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()

			if err := c.OAuthService.BeginSignIn(cmd.Context()); err != nil {
				view.Error(cmd.ErrOrStderr(), service.SignInFailedNotice)
				return err
			}
			view.Notice(out, "Waiting for the browser to finish sign-in…")

			ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.App.LoginTimeout)
			defer cancel()

			select {
			case outcome := <-c.SignInOutcomes:
				if outcome != service.OutcomeProceed {
					return errSignInIncomplete
				}
				fmt.Fprintln(out, "Signed in.")
				return nil
			case err := <-serveErr:
				return fmt.Errorf("callback listener stopped: %w", err)
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", errSignInIncomplete, ctx.Err())
			}
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Sign in even if a session is present")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.container.OAuthService.SignOut()
			return nil
		},
	}
}
