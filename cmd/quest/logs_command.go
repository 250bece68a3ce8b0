package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stevendeporre123/quest-app/internal/logging"
	"github.com/stevendeporre123/quest-app/internal/logs"
)

// skippedLogFields are rendered in the line prefix rather than as key=value.
var skippedLogFields = map[string]struct{}{
	logging.FieldTimestamp: {},
	slog.LevelKey:          {},
	slog.MessageKey:        {},
	logging.FieldComponent: {},
	slog.SourceKey:         {},
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var meetingID int64
	var questionID int64
	var level string
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{
				MeetingID:  meetingID,
				QuestionID: questionID,
				Component:  strings.TrimSpace(component),
			}
			if strings.TrimSpace(level) != "" {
				if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid level %q", level)
				}
			}
			path := filepath.Join(cfg.Paths.LogDir, "questd.log")
			return tailLogs(cmd.Context(), cmd.OutOrStdout(), path, lines, follow, filter)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().Int64Var(&meetingID, "meeting", 0, "Only entries for this meeting")
	cmd.Flags().Int64Var(&questionID, "question", 0, "Only entries for this question")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&component, "component", "", "Only entries from this component")
	return cmd
}

func tailLogs(ctx context.Context, out io.Writer, path string, lines int, follow bool, filter logs.Filter) error {
	colorize := shouldColorize(out)
	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
	if err != nil {
		return err
	}
	for _, entry := range result.Entries {
		fmt.Fprintln(out, formatLogEntry(entry, colorize))
	}
	offset := result.Offset
	for follow {
		result, err = logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Wait: time.Second, Filter: filter})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		for _, entry := range result.Entries {
			fmt.Fprintln(out, formatLogEntry(entry, colorize))
		}
		offset = result.Offset
	}
	return nil
}

func formatLogEntry(entry logs.Entry, colorize bool) string {
	if entry.Fields == nil {
		return entry.Raw
	}
	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(entry.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	levelText := fmt.Sprintf("%-5s", entry.Level.String())
	if colorize {
		if color := levelKind(entry.Level).color(); color != "" {
			levelText = color + levelText + ansiReset
		}
	}
	b.WriteString(levelText)
	if entry.Component != "" {
		fmt.Fprintf(&b, " [%s]", entry.Component)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for key := range entry.Fields {
		if _, skip := skippedLogFields[key]; skip {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, entry.Fields[key])
	}
	return b.String()
}

func levelKind(level slog.Level) statusKind {
	switch {
	case level >= slog.LevelError:
		return statusError
	case level >= slog.LevelWarn:
		return statusWarn
	default:
		return statusInfo
	}
}
