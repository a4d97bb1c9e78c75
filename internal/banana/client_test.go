package banana

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultServer {
		t.Fatalf("host = %q, want %q", u.Host, defaultServer)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	u, err = parseBaseURL("wss://example.com")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https for wss input", u.Scheme)
	}
}

func TestClient_StreamAndArtifactURLs(t *testing.T) {
	c, err := NewClient("example.com:8000", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.StreamURL(); got != "ws://example.com:8000/ws" {
		t.Fatalf("StreamURL = %q, want ws://example.com:8000/ws", got)
	}

	cases := map[string]string{
		"abc123/v1-faithful.png":          "http://example.com:8000/outputs/abc123/v1-faithful.png",
		"/abc123/v1-faithful.png":         "http://example.com:8000/outputs/abc123/v1-faithful.png",
		"outputs/abc123/v1-faithful.png":  "http://example.com:8000/outputs/abc123/v1-faithful.png",
		"https://cdn.example.com/a.png":   "https://cdn.example.com/a.png",
		"   ":                             "",
	}
	for in, want := range cases {
		if got := c.ArtifactURL(in); got != want {
			t.Fatalf("ArtifactURL(%q) = %q, want %q", in, got, want)
		}
	}

	secure, err := NewClient("https://squad.example.com", "media")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := secure.StreamURL(); got != "wss://squad.example.com/ws" {
		t.Fatalf("StreamURL = %q, want wss://squad.example.com/ws", got)
	}
	if got := secure.ArtifactURL("x/y.png"); got != "https://squad.example.com/media/x/y.png" {
		t.Fatalf("ArtifactURL = %q, want custom prefix", got)
	}
}

func TestClient_ListAndFetchJobs(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotUserAgent, gotRequestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/jobs":
			gotQuery = r.URL.Query()
			winner := "v2-enhanced"
			_ = json.NewEncoder(w).Encode([]JobSummary{{JobID: "abc123", Stage: StageComplete, ImageCount: 5, Winner: &winner}})
		case "/api/jobs/abc123":
			_ = json.NewEncoder(w).Encode(JobDetail{
				JobID:       "abc123",
				Images:      []ImageVariant{{Variant: "v1-faithful", Success: true}, {Variant: "v2-enhanced", Success: false}},
				Evaluations: []Evaluation{{Variant: "v2-enhanced", Scores: Scores{Total: 31.5}, Rank: 1}},
			})
		case "/api/jobs/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Job not found"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	jobs, err := c.ListJobs(ctx, JobQuery{Search: " bicycle ", Sort: "oldest"})
	if err != nil {
		t.Fatalf("ListJobs returned error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].JobID != "abc123" || jobs[0].WinnerLabel() != "v2-enhanced" {
		t.Fatalf("ListJobs = %#v, want abc123 with winner", jobs)
	}
	if gotQuery.Get("search") != "bicycle" || gotQuery.Get("sort") != "oldest" {
		t.Fatalf("ListJobs query = %v, want search and sort encoded", gotQuery)
	}
	if !strings.HasPrefix(gotUserAgent, "squadboard/") {
		t.Fatalf("User-Agent = %q, want squadboard/*", gotUserAgent)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-ID header missing")
	}

	detail, err := c.FetchJob(ctx, "abc123")
	if err != nil {
		t.Fatalf("FetchJob returned error: %v", err)
	}
	if detail.SuccessfulImages() != 1 {
		t.Fatalf("SuccessfulImages = %d, want 1", detail.SuccessfulImages())
	}
	if ev, ok := detail.EvaluationFor("v2-enhanced"); !ok || ev.Rank != 1 {
		t.Fatalf("EvaluationFor(v2-enhanced) = %#v, %v", ev, ok)
	}

	_, err = c.FetchJob(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchJob(missing) error = %v, want ErrNotFound", err)
	}
}

func TestClient_GenerateSendsMultipart(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("prompt") != "a red bicycle on a beach, golden hour" ||
			r.FormValue("aspect_ratio") != "4:3" ||
			r.FormValue("resolution") != "2K" {
			http.Error(w, "bad fields", http.StatusBadRequest)
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 1 || files[0].Filename != "ref.png" || files[0].Header.Get("Content-Type") != "image/png" {
			http.Error(w, "bad files", http.StatusBadRequest)
			return
		}
		f, _ := files[0].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "png-bytes" {
			http.Error(w, "bad file data", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(GenerateResponse{JobID: "abc123"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	id, err := c.Generate(context.Background(), GenerateRequest{
		Prompt:      "a red bicycle on a beach, golden hour",
		AspectRatio: "4:3",
		Resolution:  "2K",
		Files:       []Attachment{{Name: "/tmp/refs/ref.png", ContentType: "image/png", Data: []byte("png-bytes")}},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("Generate id = %q, want abc123", id)
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"prompt too long"}`))
		case "/api/refine":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`oops`))
		case "/api/jobs":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if got := ServerMessage(err); got != "prompt too long" {
		t.Fatalf("ServerMessage = %q, want prompt too long (err=%v)", got, err)
	}

	err = c.Refine(context.Background(), RefineRequest{JobID: "abc123", Variant: "v1-faithful"})
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("Refine error = %v, want status 500 error", err)
	}
	if got := ServerMessage(err); got != "" {
		t.Fatalf("ServerMessage = %q, want empty for non-json body", got)
	}

	_, err = c.ListJobs(context.Background(), JobQuery{})
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("ListJobs error = %v, want decode response error", err)
	}
}

func TestErrorBody_ValidationList(t *testing.T) {
	body := errorBody{Detail: json.RawMessage(`[{"loc":["body","prompt"],"msg":"field required"}]`)}
	if got := body.message(); got != "field required" {
		t.Fatalf("message = %q, want field required", got)
	}
}
