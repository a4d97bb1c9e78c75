package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/config"
	"github.com/five82/squadboard/internal/logtail"
)

// NewLogsCmd creates the logs command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the tail of the squadboard log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, _ := cmd.Flags().GetInt("lines")
			plain, _ := cmd.Flags().GetBool("plain")
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(configPath)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			records, err := logtail.Read(cfg.LogFile, lines)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No log entries in %s\n", cfg.LogFile)
				return nil
			}
			for _, line := range records {
				fmt.Fprintln(out, logtail.Format(line, !plain))
			}
			return nil
		},
	}
	cmd.Flags().IntP("lines", "n", 50, "number of lines to show (0 for all)")
	cmd.Flags().Bool("plain", false, "disable colors")
	return cmd
}
