package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/workflow"
)

// NewRefineCmd creates the refine command.
func NewRefineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refine <job> <variant> [instruction]",
		Short: "Ask the pipeline to refine one image variant",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := workflow.RefineKey{JobID: args[0], Variant: args[1]}

			forms := workflow.NewRefineForms()
			forms.SetInstruction(key, strings.Join(args[2:], " "))
			req, err := forms.Begin(key)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			env, err := openEnv(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer env.Close()

			if err := env.Client.Refine(cmd.Context(), req); err != nil {
				forms.Fail(key, err)
				env.Logger.Warn().Err(err).Str("job_id", key.JobID).Str("variant", key.Variant).Msg("refine failed")
				return writeCommandError(cmd, err)
			}

			env.Logger.Info().Str("job_id", key.JobID).Str("variant", key.Variant).Msg("refinement requested")
			fmt.Fprintln(cmd.OutOrStdout(), forms.Succeed(key))
			return nil
		},
	}
}
