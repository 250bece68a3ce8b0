package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevendeporre123/quest-app/internal/api"
)

func newQuestionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "question",
		Aliases: []string{"questions"},
		Short:   "Manage individual questions",
	}
	cmd.AddCommand(newQuestionRequeueCommand(ctx))
	cmd.AddCommand(newQuestionInheritCommand(ctx))
	return cmd
}

func newQuestionRequeueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <question-id>",
		Short: "Reset a finished question so its answer is generated again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questionID, err := parseID("question", args[0])
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				q, err := backend.Requeue(cmd.Context(), questionID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), questionLine(q))
				return nil
			})
		},
	}
}

func newQuestionInheritCommand(ctx *commandContext) *cobra.Command {
	var clearSource bool

	cmd := &cobra.Command{
		Use:   "inherit <question-id> [source-question-id]",
		Short: "Let a question reuse the answer of another question in the same meeting",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			questionID, err := parseID("question", args[0])
			if err != nil {
				return err
			}
			var req api.InheritRequest
			switch {
			case clearSource && len(args) == 2:
				return errors.New("--clear does not take a source question id")
			case clearSource:
			case len(args) == 1:
				return errors.New("source question id is required (or pass --clear)")
			default:
				sourceID, err := parseID("source question", args[1])
				if err != nil {
					return err
				}
				req.InheritsFromID = &sourceID
			}
			return ctx.withBackend(cmd, func(backend processingBackend) error {
				q, err := backend.SetInheritance(cmd.Context(), questionID, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), questionLine(q))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearSource, "clear", false, "Remove the answer source so the question is answered on its own")
	return cmd
}
