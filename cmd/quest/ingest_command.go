package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stevendeporre123/quest-app/internal/api"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest <file.json>",
		Short: "Ingest a parsed meeting agenda and transcript",
		Long: "Ingest reads an upload payload (meeting_date, commission_name, webcast_id,\n" +
			"transcript and questions) from a JSON file, or from stdin when the path is -.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readUploadRequest(cmd, args[0])
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				resp, err := backend.Upload(cmd.Context(), req)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Meeting %d %s with %d questions\n", resp.MeetingID, resp.Status, resp.Questions)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func readUploadRequest(cmd *cobra.Command, path string) (api.UploadRequest, error) {
	var req api.UploadRequest
	var reader io.Reader
	if strings.TrimSpace(path) == "-" {
		reader = cmd.InOrStdin()
	} else {
		file, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open upload file: %w", err)
		}
		defer file.Close()
		reader = file
	}
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("parse upload file: %w", err)
	}
	return req, nil
}
