package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stevendeporre123/quest-app/internal/api"
	"github.com/stevendeporre123/quest-app/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [meeting-id]",
		Short: "Show daemon status, or the progress of one meeting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runMeetingStatus(cmd, ctx, args[0], jsonOutput)
			}
			return runDaemonStatus(cmd, ctx, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runMeetingStatus(cmd *cobra.Command, ctx *commandContext, arg string, jsonOutput bool) error {
	meetingID, err := parseID("meeting", arg)
	if err != nil {
		return err
	}
	return ctx.withBackend(cmd, func(backend processingBackend) error {
		progress, err := backend.MeetingProgress(cmd.Context(), meetingID)
		if err != nil {
			return err
		}
		if progress == nil {
			return fmt.Errorf("meeting %d not found", meetingID)
		}
		if jsonOutput {
			return writeJSON(cmd, progress)
		}
		out := cmd.OutOrStdout()
		colorize := shouldColorize(out)
		fmt.Fprintln(out, renderStatusLine(fmt.Sprintf("Meeting %d", meetingID), stateKind(progress.ProcessingState), progress.ProcessingState, colorize))
		fmt.Fprintln(out, renderTable(
			[]column{numCol("Pending"), numCol("In progress"), numCol("Completed"), numCol("Errors")},
			[][]string{{
				formatCount(progress.Pending),
				formatCount(progress.InProgress),
				formatCount(progress.Completed),
				formatCount(progress.Errors),
			}},
		))
		return nil
	})
}

func runDaemonStatus(cmd *cobra.Command, ctx *commandContext, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	status := api.DaemonStatus{
		DatabasePath: cfg.DatabasePath(),
		LockFilePath: cfg.LockPath(),
	}
	if client := ctx.daemon(cmd.Context()); client != nil {
		remote, err := client.Status(cmd.Context())
		if err != nil {
			return err
		}
		status = *remote
	} else {
		err := ctx.withStore(func(store *queue.Store) error {
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			status.Workflow.QueueStats = api.MergeQueueStats(stats)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		return writeJSON(cmd, status)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Quest", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
		wf := status.Workflow
		fmt.Fprintln(out, renderStatusLine("Dispatcher", statusInfo, fmt.Sprintf("%d workers, %d in flight", wf.Workers, wf.InFlight), colorize))
		fmt.Fprintln(out, renderStatusLine("Enricher", statusInfo, fallback(wf.Enricher, "unknown"), colorize))
		if wf.LastError != "" {
			fmt.Fprintln(out, renderStatusLine("Last error", statusError, wf.LastError, colorize))
		}
		if wf.LastJob != nil {
			fmt.Fprintln(out, renderStatusLine("Last job", statusInfo, fmt.Sprintf("meeting %d question %d (attempt %d)", wf.LastJob.MeetingID, wf.LastJob.QuestionID, wf.LastJob.Attempt), colorize))
		}
	} else {
		fmt.Fprintln(out, renderStatusLine("Quest", statusError, "Not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Questions", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderQueueStats(status.Workflow.QueueStats))
	return nil
}

func renderQueueStats(stats map[string]int) string {
	order := make(map[string]int, len(queue.AllStatuses))
	for i, status := range queue.AllStatuses {
		order[string(status)] = i
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := order[keys[i]]
		oj, jok := order[keys[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return keys[i] < keys[j]
	})
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{strings.ReplaceAll(key, "_", " "), formatCount(stats[key])})
	}
	return renderTable([]column{textCol("Status"), numCol("Count")}, rows)
}
