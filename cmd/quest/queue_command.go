package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List meetings that still have unfinished questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				resp, err := backend.Queue(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Meetings) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(resp.Meetings))
				for _, entry := range resp.Meetings {
					rows = append(rows, []string{
						strconv.FormatInt(entry.MeetingID, 10),
						entry.ProcessingState,
						formatCount(entry.TotalQuestions),
						formatCount(entry.Pending),
						formatCount(entry.InProgress),
						formatCount(entry.Completed),
						formatCount(entry.Errors),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{numCol("Meeting"), textCol("State"), numCol("Total"), numCol("Pending"), numCol("In progress"), numCol("Completed"), numCol("Errors")},
					rows,
				))
				fmt.Fprintf(out, "All meetings: %s pending, %s in progress, %s completed, %s errors\n",
					formatCount(resp.Totals.Pending),
					formatCount(resp.Totals.InProgress),
					formatCount(resp.Totals.Completed),
					formatCount(resp.Totals.Errors),
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
