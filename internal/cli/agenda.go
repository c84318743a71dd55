package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/systematicmess/calendar-assistant/internal/cache"
	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/view"
)

func newAgendaCmd(rt *runtime) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show your meetings and total meeting time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cal := rt.container.CalendarService

			var res cache.Result[dto.EventsResponse]
			if refresh {
				res = cal.Refresh(cmd.Context())
			} else {
				res = cal.Events(cmd.Context())
			}

			view.Agenda(cmd.OutOrStdout(), res, time.Local)
			if res.Status == cache.StatusError {
				return res.Err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch even if the cached agenda is fresh")
	return cmd
}
