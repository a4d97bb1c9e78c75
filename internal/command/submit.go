package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/prefs"
	"github.com/five82/squadboard/internal/workflow"
)

// NewSubmitCmd creates the submit command.
func NewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <prompt>",
		Short: "Submit a new image job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aspect, _ := cmd.Flags().GetString("aspect")
			resolution, _ := cmd.Flags().GetString("resolution")
			files, _ := cmd.Flags().GetStringArray("file")

			userPrefs, _ := prefs.Load("")
			if aspect == "" {
				aspect = userPrefs.AspectRatio
			}
			if resolution == "" {
				resolution = userPrefs.Resolution
			}
			if !contains(workflow.AspectRatios, aspect) {
				return writeCommandError(cmd, fmt.Errorf("unknown aspect ratio %q (want one of %s)", aspect, strings.Join(workflow.AspectRatios, ", ")))
			}
			if !contains(workflow.Resolutions, resolution) {
				return writeCommandError(cmd, fmt.Errorf("unknown resolution %q (want one of %s)", resolution, strings.Join(workflow.Resolutions, ", ")))
			}

			form := workflow.NewSubmitForm(aspect, resolution)
			form.Prompt = strings.Join(args, " ")
			for _, path := range files {
				if err := form.StageFile(path); err != nil {
					return writeCommandError(cmd, err)
				}
			}

			req, err := form.Begin()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			env, err := openEnv(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer env.Close()

			jobID, err := env.Client.Generate(cmd.Context(), req)
			if err != nil {
				form.Fail(err)
				env.Logger.Warn().Err(err).Msg("submit failed")
				return writeCommandError(cmd, err)
			}
			form.Succeed()
			env.Logger.Info().Str("job_id", jobID).Int("files", len(req.Files)).Msg("job submitted")

			fmt.Fprintln(cmd.OutOrStdout(), jobID)
			return nil
		},
	}

	cmd.Flags().String("aspect", "", "aspect ratio: 4:3, 1:1, 16:9, 9:16, 3:4 (default from prefs)")
	cmd.Flags().String("resolution", "", "resolution: 1K, 2K, 4K (default from prefs)")
	cmd.Flags().StringArrayP("file", "f", nil, "reference image to attach (repeatable)")
	return cmd
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
