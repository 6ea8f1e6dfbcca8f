package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/internal/config"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `
welcome: "Hi there"
navigation:
  back: "Back"
states:
  welcome:
    text: "Do you like Go?"
    buttons:
      - text: "Yes"
        next_state: editor
      - text: "No"
        next_state: end
  editor:
    text: "Favourite editor?"
    previous: welcome
    buttons:
      - text: vim
        next_state: end
  orphan:
    text: "Never asked"
    buttons:
      - text: ok
        next_state: end
`

func parse(t *testing.T, extra string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc + extra))
	require.NoError(t, err)
	return cfg
}

func build(t *testing.T, cfg *config.Config) (*cli.App, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	app, err := cli.Build(cfg, &logs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, &logs
}

func TestBuild_MemoryBackend(t *testing.T) {
	cfg := parse(t, "log_level: debug\nlog_format: json\n")
	app, logs := build(t, cfg)

	ctx := context.Background()
	step, err := app.Bot.Handle(ctx, domain.CommandEvent("1", "start"))
	require.NoError(t, err)
	assert.Equal(t, "Hi there", step.Instruction.Text)

	step, err = app.Bot.Handle(ctx, domain.CommandEvent("1", "onboarding"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Back"}, step.Instruction.Navigation)

	_, err = app.Bot.Handle(ctx, domain.TextEvent("1", "No"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(app.Metrics.Answers.WithLabelValues("welcome")))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.Metrics.Completions.WithLabelValues(string(domain.ReasonFinished))))
	assert.Contains(t, logs.String(), `"msg":"Bot ready"`)
	assert.Contains(t, logs.String(), `"node_id":"welcome"`)
}

func TestBuild_FileBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := parse(t, "store:\n  backend: file\n  dir: "+dir+"\n")
	app, _ := build(t, cfg)

	ctx := context.Background()
	_, err := app.Bot.Handle(ctx, domain.CommandEvent("7", "onboarding"))
	require.NoError(t, err)

	store, closer, err := cli.OpenStore(cfg)
	require.NoError(t, err)
	assert.Nil(t, closer)

	var out bytes.Buffer
	require.NoError(t, cli.ListSessions(ctx, store, &out))
	assert.Equal(t, "Active Sessions:\n- 7\n", out.String())
}

func TestBuild_RedisBackendWithLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := parse(t, "store:\n  backend: redis\n  distributed_lock: true\n  redis:\n    addr: "+mr.Addr()+"\n    prefix: \"test:\"\n    ttl: 1h\n")
	require.NoError(t, cfg.Validate())
	app, _ := build(t, cfg)

	ctx := context.Background()
	_, err := app.Bot.Handle(ctx, domain.CommandEvent("r", "onboarding"))
	require.NoError(t, err)
	_, err = app.Bot.Handle(ctx, domain.TextEvent("r", "Yes"))
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:r"))
	assert.False(t, mr.Exists("test:lock:r"), "lock is released after each event")
	assert.Equal(t, time.Hour, mr.TTL("test:r"))
}

func TestBuild_EncryptedStore(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32))
	dir := t.TempDir()
	cfg := parse(t, "store:\n  backend: file\n  dir: "+dir+"\n  encryption_key: "+key+"\n")
	app, _ := build(t, cfg)

	ctx := context.Background()
	_, err := app.Bot.Handle(ctx, domain.CommandEvent("e", "onboarding"))
	require.NoError(t, err)
	_, err = app.Bot.Handle(ctx, domain.TextEvent("e", "Yes"))
	require.NoError(t, err)

	store, _, err := cli.OpenStore(cfg)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, cli.InspectSession(ctx, store, "e", &out))
	assert.Contains(t, out.String(), `"Question 1: Yes"`)
	assert.Contains(t, out.String(), `"phase": "at_node"`)
}

func TestBuild_InvalidGraph(t *testing.T) {
	cfg, err := config.Parse([]byte("states:\n  welcome:\n    text: hi\n    buttons:\n      - text: a\n        next_state: nowhere\n"))
	require.NoError(t, err)

	_, err = cli.Build(cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "nowhere")
}

func TestNewHTTPHandler(t *testing.T) {
	app, _ := build(t, parse(t, ""))
	h := cli.NewHTTPHandler(app)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/h/commands/onboarding", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Do you like Go?")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "onboard_node_visits_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	app, _ := build(t, parse(t, ""))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.Serve(ctx, app, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(cli.ShutdownTimeout + time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestRunConsole(t *testing.T) {
	app, _ := build(t, parse(t, ""))

	var out bytes.Buffer
	in := strings.NewReader("/onboarding\n1\n1\n")
	require.NoError(t, cli.RunConsole(context.Background(), app, in, &out, true))

	assert.Contains(t, out.String(), "Hi there")
	assert.Contains(t, out.String(), "- Question 1: Yes\n- Question 2: vim")
}
