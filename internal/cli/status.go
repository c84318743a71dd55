package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systematicmess/calendar-assistant/internal/dto"
)

func newStatusCmd(rt *runtime) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sign-in state and back-end reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rt.container
			id, ok := c.Sessions.Current()

			status := dto.StatusResponse{
				SignedIn:   ok,
				SessionID:  mask(id),
				EntryRoute: c.OAuthService.EntryRoute(),
				Backend:    rt.cfg.API.BaseURL,
			}
			if _, err := c.HealthService.Check(cmd.Context()); err != nil {
				status.BackendErr = err.Error()
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			case "yaml":
				return yaml.NewEncoder(out).Encode(status)
			case "text":
				signedIn := "no"
				if status.SignedIn {
					signedIn = "yes (" + status.SessionID + ")"
				}
				backend := "ok"
				if status.BackendErr != "" {
					backend = "unreachable: " + status.BackendErr
				}
				fmt.Fprintf(out, "Signed in: %s\nBack-end:  %s (%s)\nStart at:  %s\n",
					signedIn, status.Backend, backend, status.EntryRoute)
				return nil
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

// mask keeps a short prefix of a session id.
func mask(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 4 {
		return "****"
	}
	return id[:4] + "…"
}
