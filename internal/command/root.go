package command

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/app"
)

const AppName = "squadboard"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "squadboard - dashboard for image pipeline jobs",
		Long:          "squadboard tracks image generation jobs live from the pipeline's event stream and REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := appOptions(cmd)
			opts.PrefsPath, _ = cmd.Flags().GetString("prefs")
			if err := app.Run(cmd.Context(), opts); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config", "", "config file (default ~/.config/squadboard/config.toml)")
	cmd.PersistentFlags().String("server", "", "pipeline server host:port or URL")
	cmd.Flags().String("prefs", "", "preferences file (default ~/.config/squadboard/prefs.toml)")

	cmd.AddCommand(
		NewJobsCmd(),
		NewShowCmd(),
		NewSubmitCmd(),
		NewRefineCmd(),
		NewWatchCmd(),
		NewLogsCmd(),
	)

	return cmd
}

// Execute runs the command tree bound to ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd(Version).ExecuteContext(ctx)
}

func appOptions(cmd *cobra.Command) app.Options {
	configPath, _ := cmd.Flags().GetString("config")
	server, _ := cmd.Flags().GetString("server")
	return app.Options{ConfigPath: configPath, Server: server}
}

// openEnv loads config and the client for one-shot subcommands.
func openEnv(cmd *cobra.Command) (*app.Env, error) {
	return app.Setup(appOptions(cmd))
}
