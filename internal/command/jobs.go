package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/state"
)

const promptColumnWidth = 48

// NewJobsCmd creates the jobs command.
func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			sortKey, _ := cmd.Flags().GetString("sort")
			asJSON, _ := cmd.Flags().GetBool("json")

			if !validSort(sortKey) {
				return writeCommandError(cmd, fmt.Errorf("unknown sort %q (want one of %s)", sortKey, strings.Join(state.SortKeys, ", ")))
			}

			env, err := openEnv(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer env.Close()

			jobs, err := env.Client.ListJobs(cmd.Context(), banana.JobQuery{Search: search, Sort: sortKey})
			if err != nil {
				return writeCommandError(cmd, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No jobs."))
				return nil
			}
			fmt.Fprintln(out, jobsTable(jobs))
			return nil
		},
	}

	cmd.Flags().String("search", "", "filter by prompt text")
	cmd.Flags().String("sort", state.SortNewest, "sort key: newest, oldest, stage, images")
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func validSort(key string) bool {
	for _, k := range state.SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

func jobsTable(jobs []banana.JobSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("JOB", "STAGE", "IMAGES", "WINNER", "CREATED", "PROMPT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, job := range jobs {
		t = t.Row(
			job.JobID,
			stageText(job.Stage),
			strconv.Itoa(job.ImageCount),
			orDash(job.WinnerLabel()),
			relTime(job.ParsedCreatedAt()),
			clip(job.Prompt, promptColumnWidth),
		)
	}
	return t.Render()
}

func clip(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
