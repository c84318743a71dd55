package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLogsCmd(rt *runtime) *cobra.Command {
	var (
		level  string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := rt.log.GetLogs(strings.ToUpper(level), limit, offset)
			if err != nil {
				return fmt.Errorf("read logs: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s %-5s [%s] %s", e.Timestamp, e.Level, e.Module, e.Message)
				if len(e.Details) > 0 {
					fmt.Fprintf(out, " %v", e.Details)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "Only show entries of this level (info, warn, error)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many of the newest entries")
	return cmd
}
