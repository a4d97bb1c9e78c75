package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/squadboard/internal/apitest"
	"github.com/five82/squadboard/internal/banana"
)

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// isolate points config, prefs and the log at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("SQUADBOARD_SERVER", "")
	t.Setenv("SQUADBOARD_LOG_FILE", filepath.Join(dir, "squadboard.log"))
	return dir
}

func strptr(s string) *string { return &s }

func TestRootCommandVersion(t *testing.T) {
	cmd := NewRootCmd("test")

	output, err := executeCommand(cmd, "--version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(output, "squadboard version test") {
		t.Fatalf("expected version output, got %q", output)
	}
}

func TestJobsCommand_ListsCatalog(t *testing.T) {
	isolate(t)
	srv := apitest.New()
	defer srv.Close()
	srv.AddJob(banana.JobSummary{
		JobID:      "abc123",
		Prompt:     "a lighthouse at dusk",
		Stage:      banana.StageComplete,
		ImageCount: 4,
		Winner:     strptr("v2-enhanced"),
	}, nil)

	output, err := executeCommand(NewRootCmd("test"), "jobs", "--server", srv.URL, "--sort", "images", "--search", "lighthouse")
	require.NoError(t, err)
	assert.Contains(t, output, "abc123")
	assert.Contains(t, output, "a lighthouse at dusk")
	assert.Contains(t, output, "v2-enhanced")

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Query, "sort=images")
	assert.Contains(t, reqs[0].Query, "search=lighthouse")
}

func TestJobsCommand_RejectsUnknownSort(t *testing.T) {
	isolate(t)

	output, err := executeCommand(NewRootCmd("test"), "jobs", "--sort", "alphabetical")
	require.Error(t, err)
	assert.Contains(t, output, `unknown sort "alphabetical"`)
}

func TestShowCommand_PrintsDetail(t *testing.T) {
	isolate(t)
	srv := apitest.New()
	defer srv.Close()
	srv.AddJob(banana.JobSummary{JobID: "abc123", Prompt: "a lighthouse"}, &banana.JobDetail{
		JobID:  "abc123",
		Prompt: "a lighthouse",
		Stage:  banana.StageComplete,
		Research: &banana.Research{
			Style:  "oil painting",
			Colors: []string{"amber", "teal"},
		},
		Images: []banana.ImageVariant{
			{Variant: "v1-faithful", Success: true, FilePath: strptr("abc123/v1.png")},
			{Variant: "v2-enhanced", Success: false, Error: strptr("safety filter")},
		},
		Evaluations: []banana.Evaluation{{Variant: "v1-faithful", Rank: 1, Scores: banana.Scores{Total: 8.5}}},
		Summary:     strptr("v1 wins on faithfulness"),
	})

	output, err := executeCommand(NewRootCmd("test"), "show", "abc123", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, output, "oil painting")
	assert.Contains(t, output, "amber, teal")
	assert.Contains(t, output, "Images (1/2)")
	assert.Contains(t, output, srv.URL+"/outputs/abc123/v1.png")
	assert.Contains(t, output, "safety filter")
	assert.Contains(t, output, "#1  8.5")
	assert.Contains(t, output, "v1 wins on faithfulness")
}

func TestShowCommand_UnknownJob(t *testing.T) {
	isolate(t)
	srv := apitest.New()
	defer srv.Close()

	output, err := executeCommand(NewRootCmd("test"), "show", "nope", "--server", srv.URL)
	require.ErrorIs(t, err, banana.ErrNotFound)
	assert.Contains(t, output, "Error: nope: job not found")
}

func TestSubmitCommand_PrintsJobID(t *testing.T) {
	dir := isolate(t)
	srv := apitest.New()
	defer srv.Close()

	ref := filepath.Join(dir, "ref.png")
	require.NoError(t, os.WriteFile(ref, []byte("\x89PNG\r\n\x1a\n0000"), 0o644))

	output, err := executeCommand(NewRootCmd("test"),
		"submit", "a", "quiet", "harbor", "--aspect", "16:9", "-f", ref, "--server", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "job0001\n", output)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"a quiet harbor"}, reqs[0].Form["prompt"])
	assert.Equal(t, []string{"16:9"}, reqs[0].Form["aspect_ratio"])
	assert.Equal(t, []string{"2K"}, reqs[0].Form["resolution"])
	assert.Equal(t, []string{"ref.png"}, reqs[0].Files)
}

func TestSubmitCommand_ShowsServerError(t *testing.T) {
	isolate(t)
	srv := apitest.New()
	defer srv.Close()
	srv.GenerateStatus = 503

	output, err := executeCommand(NewRootCmd("test"), "submit", "a harbor", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, output, "Error: generation unavailable")
}

func TestSubmitCommand_RejectsUnknownAspect(t *testing.T) {
	isolate(t)

	output, err := executeCommand(NewRootCmd("test"), "submit", "a harbor", "--aspect", "2:1")
	require.Error(t, err)
	assert.Contains(t, output, `unknown aspect ratio "2:1"`)
}

func TestRefineCommand(t *testing.T) {
	isolate(t)
	srv := apitest.New()
	defer srv.Close()

	output, err := executeCommand(NewRootCmd("test"), "refine", "abc123", "v2-enhanced", "warmer", "light", "--server", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Refinement requested for v2-enhanced: warmer light\n", output)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"abc123"}, reqs[0].Form["job_id"])
	assert.Equal(t, []string{"warmer light"}, reqs[0].Form["instruction"])

	srv.RefineError = "image missing"
	output, err = executeCommand(NewRootCmd("test"), "refine", "abc123", "v9", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, output, "Error: image missing")
}

func TestLogsCommand_FormatsTail(t *testing.T) {
	dir := isolate(t)
	logPath := filepath.Join(dir, "squadboard.log")
	lines := `{"level":"info","time":"2026-10-15T10:00:00Z","message":"first"}
{"level":"warn","time":"2026-10-15T10:00:01Z","component":"stream","message":"stream lost"}
`
	require.NoError(t, os.WriteFile(logPath, []byte(lines), 0o644))

	output, err := executeCommand(NewRootCmd("test"), "logs", "-n", "1", "--plain")
	require.NoError(t, err)
	assert.NotContains(t, output, "first")
	assert.Contains(t, output, "WAR stream lost")
	assert.Contains(t, output, "component=stream")
}

func TestLogsCommand_EmptyLog(t *testing.T) {
	isolate(t)

	output, err := executeCommand(NewRootCmd("test"), "logs")
	require.NoError(t, err)
	assert.Contains(t, output, "No log entries")
}
