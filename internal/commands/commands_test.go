package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskorg/internal/core/config"
	"github.com/colonyops/taskorg/internal/core/task"
	"github.com/colonyops/taskorg/internal/data/db"
	"github.com/colonyops/taskorg/internal/taskorg"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	flags *Flags
	app   *taskorg.App
	vault string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dataDir := t.TempDir()
	vaultDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.Vault.Path = vaultDir

	database, err := db.Open(dataDir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return &harness{
		flags: &Flags{Config: &cfg, DataDir: dataDir},
		app:   taskorg.NewApp(&cfg, database, zerolog.Nop()),
		vault: vaultDir,
	}
}

type registrar interface {
	Register(app *cli.Command) *cli.Command
}

func (h *harness) run(t *testing.T, cmd registrar, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := &cli.Command{
		Name:           "taskorg",
		Writer:         &out,
		ErrWriter:      &out,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	root = cmd.Register(root)

	err := root.Run(context.Background(), append([]string{"taskorg"}, args...))
	return out.String(), err
}

func (h *harness) add(t *testing.T, text string) {
	t.Helper()
	out, err := h.run(t, NewAddCmd(h.flags, h.app), "add", "--local", text)
	require.NoError(t, err)
	require.Contains(t, out, "Task organized")
}

func (h *harness) tasks(t *testing.T) []task.Task {
	t.Helper()
	all, err := h.app.Tasks.List(context.Background(), task.ListFilter{})
	require.NoError(t, err)
	return all
}

func TestAdd_Local(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, NewAddCmd(h.flags, h.app), "add", "--local", "--source", "mac", "buy", "groceries", "asap")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Task organized: Shopping")
	assert.Contains(t, out, "Priority:")
	assert.Contains(t, out, "high")

	all := h.tasks(t)
	require.Len(t, all, 1)
	assert.Equal(t, "buy groceries asap", all[0].Text)
	assert.Equal(t, "mac", all[0].Source)
}

func TestAdd_ReadsStdin(t *testing.T) {
	h := newHarness(t)

	cmd := NewAddCmd(h.flags, h.app)
	cmd.stdin = strings.NewReader("book doctor appointment\nignored\n")

	out, err := h.run(t, cmd, "add", "--local")
	require.NoError(t, err)
	assert.Contains(t, out, "Health")

	all := h.tasks(t)
	require.Len(t, all, 1)
	assert.Equal(t, "book doctor appointment", all[0].Text)
	assert.Equal(t, "cli", all[0].Source)
}

func TestAdd_RejectsShortInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, NewAddCmd(h.flags, h.app), "add", "--local", "hi")
	require.Error(t, err)
	assert.Empty(t, h.tasks(t))
}

func TestAdd_MissingEndpoint(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, NewAddCmd(h.flags, h.app), "add", "water plants")
	require.ErrorIs(t, err, config.ErrMissing)
	assert.Contains(t, err.Error(), "--local")
}

func TestAdd_PostsToEndpoint(t *testing.T) {
	h := newHarness(t)

	srv, err := h.app.Server("127.0.0.1:0")
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	h.app.Config.API.Endpoint = ts.URL + "/tasks"

	out, err := h.run(t, NewAddCmd(h.flags, h.app), "add", "prepare project deadline review")
	require.NoError(t, err)
	assert.Contains(t, out, "Work")

	all := h.tasks(t)
	require.Len(t, all, 1)
	assert.Equal(t, "cli", all[0].Source)
}

func TestLs(t *testing.T) {
	h := newHarness(t)
	h.add(t, "buy new shoes")
	h.add(t, "study for the course exam")

	out, err := h.run(t, NewLsCmd(h.flags, h.app), "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "Shopping")
	assert.Contains(t, out, "Learning")

	out, err = h.run(t, NewLsCmd(h.flags, h.app), "ls", "--json", "--category", "learning")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	var got task.Task
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, task.CategoryLearning, got.Category)

	_, err = h.run(t, NewLsCmd(h.flags, h.app), "ls", "--category", "chores")
	require.Error(t, err)
}

func TestSyncAndStatus(t *testing.T) {
	h := newHarness(t)
	h.add(t, "buy coffee beans")

	out, err := h.run(t, NewStatusCmd(h.flags, h.app), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "1 task(s)")
	assert.Contains(t, out, "never")

	out, err = h.run(t, NewSyncCmd(h.flags, h.app), "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 1 note(s)")

	entries, err := os.ReadDir(filepath.Join(h.vault, "Tasks", "Shopping"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	out, err = h.run(t, NewStatusCmd(h.flags, h.app), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "0 task(s)")
	assert.Contains(t, out, "1 synced, 0 failed")

	out, err = h.run(t, NewLsCmd(h.flags, h.app), "ls", "--pending")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSync_MissingVault(t *testing.T) {
	h := newHarness(t)
	h.app.Config.Vault.Path = ""

	_, err := h.run(t, NewSyncCmd(h.flags, h.app), "sync")
	require.ErrorIs(t, err, config.ErrMissing)
}

func TestSync_VaultRootGone(t *testing.T) {
	h := newHarness(t)
	h.add(t, "buy coffee beans")
	h.app.Config.Vault.Path = filepath.Join(h.vault, "missing")

	out, err := h.run(t, NewSyncCmd(h.flags, h.app), "sync")
	require.Error(t, err)
	assert.NotContains(t, out, "Synced")

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())

	out, err = h.run(t, NewStatusCmd(h.flags, h.app), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Last good:")
	assert.Contains(t, out, "never")
}

func TestShow(t *testing.T) {
	h := newHarness(t)
	h.add(t, "go to the gym")

	all := h.tasks(t)
	require.Len(t, all, 1)

	out, err := h.run(t, NewShowCmd(h.flags, h.app), "show", "--raw", all[0].ShortID())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# go to the gym\n"))
	assert.Contains(t, out, "ID: "+all[0].ID)

	_, err = h.run(t, NewShowCmd(h.flags, h.app), "show", "zzzzzzzz")
	require.ErrorIs(t, err, task.ErrNotFound)

	_, err = h.run(t, NewShowCmd(h.flags, h.app), "show")
	require.Error(t, err)
}

func TestLinks(t *testing.T) {
	h := newHarness(t)
	h.add(t, "go to the gym")
	h.add(t, "schedule doctor visit")

	all := h.tasks(t)
	require.Len(t, all, 2)
	source, target := all[0], all[1]

	require.NoError(t, h.app.Tasks.PutLink(context.Background(), task.Link{
		SourceTaskID: source.ID,
		TargetTaskID: target.ID,
	}))
	require.NoError(t, h.app.Tasks.PutLink(context.Background(), task.Link{
		SourceTaskID: source.ID,
		TargetTaskID: "does-not-exist",
	}))

	out, err := h.run(t, NewLinksCmd(h.flags, h.app), "links", source.ID)
	require.NoError(t, err)
	assert.Contains(t, out, target.ID)
	assert.Contains(t, out, target.Text)
	assert.Contains(t, out, "(unknown)")

	out, err = h.run(t, NewLinksCmd(h.flags, h.app), "links", "--json", source.ID)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestBatch(t *testing.T) {
	h := newHarness(t)

	input := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"tasks":[
		{"task":"buy milk"},
		{"task":"finish the project report","source":"import"}
	]}`), 0o644))

	out, err := h.run(t, NewBatchCmd(h.flags, h.app), "batch", "-f", input)
	require.NoError(t, err)

	var got BatchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.BatchID, 6)
	require.Len(t, got.Results, 2)
	assert.Equal(t, StatusStored, got.Results[0].Status)
	assert.Equal(t, "Shopping", got.Results[0].Category)
	assert.Equal(t, "Work", got.Results[1].Category)

	sources := map[string]bool{}
	for _, tk := range h.tasks(t) {
		sources[tk.Source] = true
	}
	assert.Equal(t, map[string]bool{"batch": true, "import": true}, sources)
}

func TestBatchInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   BatchInput
		wantErr string
	}{
		{name: "empty tasks", input: BatchInput{}, wantErr: "tasks"},
		{name: "short task", input: BatchInput{Tasks: []BatchTask{{Task: "ok"}}}, wantErr: "tasks[0].task"},
		{
			name:    "long source",
			input:   BatchInput{Tasks: []BatchTask{{Task: "buy milk", Source: strings.Repeat("x", 201)}}},
			wantErr: "tasks[0].source",
		},
		{name: "valid", input: BatchInput{Tasks: []BatchTask{{Task: "buy milk"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, NewConfigValidateCmd(h.flags), "config", "validate", "--format", "json")
	require.NoError(t, err)

	var got validationOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Valid)
	assert.NotEmpty(t, got.Warnings)

	h.flags.Config.API.Endpoint = "ftp://example.com"
	out, err = h.run(t, NewConfigValidateCmd(h.flags), "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "api.endpoint")
	assert.Contains(t, out, "1 error(s) found")
}

type fakeLister struct {
	tasks []task.Task
}

func (f fakeLister) Get(_ context.Context, id string) (task.Task, error) {
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return task.Task{}, task.ErrNotFound
}

func (f fakeLister) List(context.Context, task.ListFilter) ([]task.Task, error) {
	return f.tasks, nil
}

func TestResolveTask(t *testing.T) {
	store := fakeLister{tasks: []task.Task{
		{ID: "abc12345-0000"},
		{ID: "abc19999-0000"},
		{ID: "def00000-0000"},
	}}
	ctx := context.Background()

	got, err := resolveTask(ctx, store, "def00000-0000")
	require.NoError(t, err)
	assert.Equal(t, "def00000-0000", got.ID)

	got, err = resolveTask(ctx, store, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc12345-0000", got.ID)

	_, err = resolveTask(ctx, store, "abc1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches 2 tasks")

	_, err = resolveTask(ctx, store, "   ")
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestDoctor(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, NewDoctorCmd(h.flags, h.app), "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Storage")
	assert.Contains(t, out, "0 failed")

	h.app.Config.Vault.Path = filepath.Join(h.vault, "missing")
	out, err = h.run(t, NewDoctorCmd(h.flags, h.app), "doctor", "--format", "json")
	require.Error(t, err)

	var got struct {
		Healthy bool `json:"healthy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Healthy)
}

func TestBatch_InvalidInput(t *testing.T) {
	h := newHarness(t)

	input := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"tasks":[]}`), 0o644))

	_, err := h.run(t, NewBatchCmd(h.flags, h.app), "batch", "-f", input)
	require.Error(t, err)
	assert.Empty(t, h.tasks(t))
}
