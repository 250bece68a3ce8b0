package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <meeting-id>",
		Short: "Suggest which questions could inherit another question's answer",
		Long: "Suggest lists candidate answer sources based on shared dossiers and similar\n" +
			"question text. Nothing is applied; use `quest question inherit` to accept one.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meetingID, err := parseID("meeting", args[0])
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				resp, err := backend.Suggestions(cmd.Context(), meetingID)
				if err != nil {
					return err
				}
				if resp == nil {
					return fmt.Errorf("meeting %d not found", meetingID)
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Suggestions) == 0 {
					fmt.Fprintln(out, "No suggestions")
					return nil
				}
				rows := make([][]string, 0, len(resp.Suggestions))
				for _, s := range resp.Suggestions {
					rows = append(rows, []string{
						strconv.FormatInt(s.QuestionID, 10),
						strconv.FormatInt(s.SourceID, 10),
						s.Reason,
						strconv.FormatFloat(s.Score, 'f', 2, 64),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{numCol("Question"), numCol("Source"), textCol("Reason"), numCol("Score")},
					rows,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
