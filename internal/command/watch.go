package command

import (
	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/app"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print live pipeline events without the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := appOptions(cmd)
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				opts.Console = cmd.ErrOrStderr()
			}
			if err := app.Watch(cmd.Context(), opts, cmd.OutOrStdout()); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "mirror log records to stderr")
	return cmd
}
