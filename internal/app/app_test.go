package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/squadboard/internal/apitest"
	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/state"
	"github.com/five82/squadboard/internal/stream"
	"github.com/five82/squadboard/internal/ui"
)

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestProgramSink_ForwardsMessages(t *testing.T) {
	rec := &recordingSender{}
	sink := programSink{program: rec}

	sink.Status(true)
	sink.Event(banana.Event{Type: banana.EventJobStarted, JobID: "abc"})
	sink.Status(false)

	require.Len(t, rec.msgs, 3)
	assert.Equal(t, ui.ConnMsg{Connected: true}, rec.msgs[0])
	assert.Equal(t, "abc", rec.msgs[1].(ui.EventMsg).Event.JobID)
	assert.Equal(t, ui.ConnMsg{Connected: false}, rec.msgs[2])
}

func TestSetup_ServerOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SQUADBOARD_SERVER", "")
	t.Setenv("SQUADBOARD_LOG_FILE", dir+"/squadboard.log")

	env, err := Setup(Options{ConfigPath: dir + "/missing.toml", Server: "pipeline.local:9000"})
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "pipeline.local:9000", env.Config.Server)
	assert.Equal(t, "ws://pipeline.local:9000/ws", env.Client.StreamURL())
	assert.Equal(t, dir+"/squadboard.log", env.Config.LogFile)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitOutput(t *testing.T, out *lockedBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", want, out.String())
}

func TestWatcher_ReconcilesLiveEvents(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddJob(banana.JobSummary{JobID: "job0001", Prompt: "a lighthouse", Stage: banana.StageComplete}, nil)

	client, err := banana.NewClient(srv.URL, "")
	require.NoError(t, err)

	session := state.NewSession(zerolog.Nop(), state.Options{})
	out := &lockedBuffer{}
	w := NewWatcher(client, stream.New(client.StreamURL(), stream.WithDelay(10*time.Millisecond)), session, out, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.True(t, srv.WaitStream(2*time.Second))
	waitOutput(t, out, "1 jobs")

	require.NoError(t, srv.Broadcast(banana.Event{Type: banana.EventJobStarted, JobID: "job0002", Data: []byte(`{"prompt":"a comet"}`)}))
	require.NoError(t, srv.Broadcast(banana.Event{Type: banana.EventStageChanged, JobID: "job0002", Data: []byte(`{"stage":"generating"}`)}))
	require.NoError(t, srv.Broadcast(banana.Event{Type: banana.EventStageChanged, JobID: "job0002", Data: []byte(`{"stage":"research"}`)}))
	require.NoError(t, srv.Broadcast(banana.Event{Type: banana.EventAgentMessage, JobID: "job0002", Data: []byte(`{"agent":"generator","message":"rendering v1"}`)}))

	waitOutput(t, out, "generator: rendering v1")
	text := out.String()
	assert.Contains(t, text, `started "a comet"`)
	assert.Contains(t, text, "Generating")
	// the backward stage change is reported with the stage kept
	assert.Equal(t, 2, strings.Count(text, "Generating"))

	srv.DropStreams()
	waitOutput(t, out, "disconnected")
	require.True(t, srv.WaitStream(2*time.Second))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, srv.Count("GET", "/api/jobs"), 1)
}
