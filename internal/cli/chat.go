package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/systematicmess/calendar-assistant/internal/view"
)

const chatHelp = "Commands: :agenda, :refresh, :logout, :quit"

func newChatCmd(rt *runtime, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with your assistant",
		Long:  "Starts an interactive chat. " + chatHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := rt.container
			out := cmd.OutOrStdout()

			if _, ok := c.Sessions.Current(); !ok {
				view.Notice(out, "Not signed in. Run `calassist login`.")
				return nil
			}

			in := o.in
			if in == nil {
				in = os.Stdin
			}
			scanner := bufio.NewScanner(in)

			view.Notice(out, "Chat with your assistant. %s", chatHelp)
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())

				switch line {
				case "":
					continue
				case ":quit", ":q":
					return nil
				case ":agenda":
					view.Agenda(out, c.CalendarService.Events(cmd.Context()), time.Local)
					continue
				case ":refresh":
					view.Agenda(out, c.CalendarService.Refresh(cmd.Context()), time.Local)
					continue
				case ":logout":
					c.OAuthService.SignOut()
					return nil
				}

				_, err := c.ChatService.Send(cmd.Context(), line)
				msgs := c.ChatService.Transcript().Messages()
				if len(msgs) > 0 {
					view.Message(out, msgs[len(msgs)-1])
				}
				if err != nil {
					rt.log.Warn("cli", "chat turn failed", map[string]interface{}{"error": err})
					if _, ok := c.Sessions.Current(); !ok {
						return nil
					}
				}
			}
		},
	}
}
