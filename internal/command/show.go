package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/banana"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <job>",
		Short: "Show the detail of one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			env, err := openEnv(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer env.Close()

			detail, err := env.Client.FetchJob(cmd.Context(), args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(detail)
			}
			printDetail(out, detail, env.Client.ArtifactURL)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func printDetail(out io.Writer, d *banana.JobDetail, artifactURL func(string) string) {
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render(label), value)
	}

	fmt.Fprintln(out, headerStyle.Render(d.JobID))
	field("Stage", stageText(d.Stage))
	field("Prompt", d.Prompt)
	field("Aspect", d.AspectRatio)
	field("Resolution", d.Resolution)
	field("Created", relTime(banana.JobSummary{CreatedAt: d.CreatedAt}.ParsedCreatedAt()))
	if d.CompletedAt != nil {
		field("Completed", relTime(banana.JobSummary{CompletedAt: d.CompletedAt}.ParsedCompletedAt()))
	}
	field("Winner", deref(d.Winner))
	if msg := deref(d.Error); msg != "" {
		field("Error", dangerStyle.Render(msg))
	}

	if r := d.Research; r != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Research"))
		field("Style", r.Style)
		field("Mood", r.Mood)
		field("Colors", strings.Join(r.Colors, ", "))
		field("Composition", r.Composition)
	}

	if len(d.Images) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Images (%d/%d)", d.SuccessfulImages(), len(d.Images))))
		for _, img := range d.Images {
			status := okStyle.Render("ok")
			if !img.Success {
				status = dangerStyle.Render("failed")
			}
			line := fmt.Sprintf("  %-22s %s", img.Variant, status)
			if ev, ok := d.EvaluationFor(img.Variant); ok {
				line += fmt.Sprintf("  #%d  %.1f", ev.Rank, ev.Scores.Total)
			}
			fmt.Fprintln(out, line)
			switch {
			case img.Success && img.Path() != "":
				fmt.Fprintln(out, mutedStyle.Render("    "+artifactURL(img.Path())))
			case img.Error != nil:
				fmt.Fprintln(out, dangerStyle.Render("    "+*img.Error))
			}
		}
	}

	if len(d.Refinements) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Refinements"))
		for _, r := range d.Refinements {
			fmt.Fprintf(out, "  %-22s %s  %s\n", r.Variant, orDash(r.Instruction), mutedStyle.Render(relTime(r.ParsedTime())))
		}
	}

	if s := deref(d.Summary); s != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Summary"))
		fmt.Fprintln(out, s)
	}
}
