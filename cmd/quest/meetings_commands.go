package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stevendeporre123/quest-app/internal/api"
)

func newMeetingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meetings",
		Aliases: []string{"meeting"},
		Short:   "Inspect and manage ingested meetings",
	}
	cmd.AddCommand(newMeetingsListCommand(ctx))
	cmd.AddCommand(newMeetingsShowCommand(ctx))
	cmd.AddCommand(newMeetingsDeleteCommand(ctx))
	return cmd
}

func newMeetingsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				resp, err := backend.ListMeetings(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Meetings) == 0 {
					fmt.Fprintln(out, "No meetings")
					return nil
				}
				rows := make([][]string, 0, len(resp.Meetings))
				for _, m := range resp.Meetings {
					rows = append(rows, []string{
						strconv.FormatInt(m.ID, 10),
						m.MeetingDate,
						truncate(m.CommissionName, 40),
						m.ProcessingState,
						fmt.Sprintf("%d/%d", m.ProcessedQuestions, m.TotalQuestions),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{numCol("ID"), textCol("Date"), textCol("Commission"), textCol("State"), numCol("Processed")},
					rows,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newMeetingsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Show a meeting with its agenda and answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meetingID, err := parseID("meeting", args[0])
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				detail, err := backend.DescribeMeeting(cmd.Context(), meetingID)
				if err != nil {
					return err
				}
				if detail == nil {
					return fmt.Errorf("meeting %d not found", meetingID)
				}
				if jsonOutput {
					return writeJSON(cmd, detail)
				}
				printMeetingDetail(cmd.OutOrStdout(), detail)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printMeetingDetail(out io.Writer, detail *api.MeetingDetail) {
	colorize := shouldColorize(out)
	m := detail.Meeting
	for _, line := range renderSectionHeader(fmt.Sprintf("Meeting %d", m.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Commission", statusInfo, fallback(m.CommissionName, "-"), colorize))
	fmt.Fprintln(out, renderStatusLine("Date", statusInfo, fallback(m.MeetingDate, "-"), colorize))
	if m.WebcastID != "" {
		fmt.Fprintln(out, renderStatusLine("Webcast", statusInfo, m.WebcastID, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("State", stateKind(m.ProcessingState), fmt.Sprintf("%s (%d/%d processed)", m.ProcessingState, m.ProcessedQuestions, m.TotalQuestions), colorize))
	if m.ProcessingError != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, m.ProcessingError, colorize))
	}
	if len(detail.Questions) == 0 {
		return
	}

	rows := make([][]string, 0, len(detail.Questions))
	for _, q := range detail.Questions {
		answer := q.Summary
		if answer == "" {
			answer = q.AnswerText
		}
		if q.ProcessingError != "" {
			answer = q.ProcessingError
		}
		rows = append(rows, []string{
			strconv.FormatInt(q.ID, 10),
			strconv.Itoa(q.SourceIdx),
			truncate(q.Title, 40),
			q.ProcessingState,
			formatCount(q.ProcessingAttempts),
			inheritsLabel(q.InheritsFromID),
			truncate(answer, 60),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]column{numCol("ID"), numCol("#"), textCol("Title"), textCol("State"), numCol("Attempts"), numCol("Inherits"), textCol("Answer")},
		rows,
	))
}

func inheritsLabel(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func newMeetingsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <meeting-id>",
		Short: "Delete a meeting and all of its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meetingID, err := parseID("meeting", args[0])
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				deleted, err := backend.DeleteMeeting(cmd.Context(), meetingID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !deleted {
					fmt.Fprintf(out, "Meeting %d not found\n", meetingID)
					return nil
				}
				fmt.Fprintf(out, "Meeting %d deleted\n", meetingID)
				return nil
			})
		},
	}
}

// questionLine summarizes a question after a mutation.
func questionLine(q *api.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d (meeting %d) is %s", q.ID, q.MeetingID, q.ProcessingState)
	if q.InheritsFromID != nil {
		fmt.Fprintf(&b, ", inherits from %d", *q.InheritsFromID)
	}
	return b.String()
}
