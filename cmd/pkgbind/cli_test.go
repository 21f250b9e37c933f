// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkgbind/pkgbind/internal/config"
	"github.com/pkgbind/pkgbind/internal/discovery"
	"github.com/pkgbind/pkgbind/internal/testutil"
)

const bindingUUID = "2438256b-c2f5-4a06-a18f-f79755e027dd"

type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, config.Sources, error) {
	if s.err != nil {
		return nil, config.Sources{}, s.err
	}
	cfg := *s.cfg
	return &cfg, config.Sources{}, nil
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, provider ConfigProvider, dir string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Config: provider, Stdout: &stdout, Stderr: &stderr})
	root := newRootCommand(app)
	root.SetArgs(append([]string{"--dir", dir}, args...))
	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newCLIProject(t *testing.T) (string, ConfigProvider) {
	t.Helper()
	dir := testutil.NewProject(t).
		Root(`"name": "vendor/root"`).
		Root(`"binding-types": {"my/type": {"parameters": {"param": {"default": "x"}}}}`).
		Install("vendor/a", `{"bindings": {"`+bindingUUID+`": {"query": "/app/*.html", "type": "my/type"}}}`).
		Write()
	testutil.MustWriteFile(t, filepath.Join(dir, "public", "app", "index.html"), "<html></html>")

	cfg := config.DefaultConfig()
	cfg.Discovery.ResourceRoot = "public"
	return dir, staticConfig{cfg: cfg}
}

func mustSucceed(t *testing.T, r cliResult) {
	t.Helper()
	if r.err != nil {
		t.Fatalf("command failed: %v\nstderr:\n%s", r.err, r.stderr)
	}
}

func TestCLI_BuildAndClear(t *testing.T) {
	t.Parallel()

	dir, provider := newCLIProject(t)

	r := runCLI(t, provider, dir, "build")
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, "1 type(s), 1 binding(s)") {
		t.Errorf("build output = %q", r.stdout)
	}

	r = runCLI(t, provider, dir, "build")
	if !errors.Is(r.err, discovery.ErrDiscoveryNotEmpty) {
		t.Fatalf("second build error = %v, want ErrDiscoveryNotEmpty", r.err)
	}
	var exitErr *ExitError
	if !errors.As(r.err, &exitErr) || exitErr.Code != 1 {
		t.Errorf("error = %#v, want ExitError with code 1", r.err)
	}
	if !strings.Contains(r.stderr, "Error:") {
		t.Errorf("stderr = %q, want a rendered error", r.stderr)
	}

	mustSucceed(t, runCLI(t, provider, dir, "build", "--force"))

	r = runCLI(t, provider, dir, "clear")
	mustSucceed(t, r)
	mustSucceed(t, runCLI(t, provider, dir, "build"))
}

func TestCLI_BindLifecycle(t *testing.T) {
	t.Parallel()

	dir, provider := newCLIProject(t)
	mustSucceed(t, runCLI(t, provider, dir, "build"))

	r := runCLI(t, provider, dir, "bind", "list")
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, bindingUUID) || !strings.Contains(r.stdout, "vendor/a") {
		t.Errorf("bind list = %q", r.stdout)
	}

	mustSucceed(t, runCLI(t, provider, dir, "bind", "disable", "2438256b"))
	r = runCLI(t, provider, dir, "bind", "list")
	mustSucceed(t, r)
	if strings.Contains(r.stdout, bindingUUID) {
		t.Errorf("disabled binding listed without --all: %q", r.stdout)
	}
	r = runCLI(t, provider, dir, "bind", "list", "--all")
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, "disabled") {
		t.Errorf("bind list --all = %q, want the disabled binding", r.stdout)
	}

	mustSucceed(t, runCLI(t, provider, dir, "bind", "enable", bindingUUID))
	r = runCLI(t, provider, dir, "bind", "list", bindingUUID[:4])
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, bindingUUID) {
		t.Errorf("re-enabled binding not listed: %q", r.stdout)
	}

	r = runCLI(t, provider, dir, "bind", "add", "/app/*.html", "nope/type")
	if !errors.Is(r.err, discovery.ErrNoSuchType) {
		t.Fatalf("bind add with unknown type: error = %v", r.err)
	}
	r = runCLI(t, provider, dir, "bind", "add", "/app/*.html", "nope/type", "--force")
	mustSucceed(t, r)
	fields := strings.Fields(r.stdout)
	added := fields[len(fields)-1]

	r = runCLI(t, provider, dir, "bind", "list", "--all", added)
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, "held back") {
		t.Errorf("binding of an unknown type = %q, want held back", r.stdout)
	}

	mustSucceed(t, runCLI(t, provider, dir, "bind", "remove", added))
	r = runCLI(t, provider, dir, "bind", "remove", added)
	if !errors.Is(r.err, discovery.ErrNoSuchBinding) {
		t.Errorf("second remove: error = %v, want ErrNoSuchBinding", r.err)
	}
}

func TestCLI_TypeLifecycle(t *testing.T) {
	t.Parallel()

	dir, provider := newCLIProject(t)

	mustSucceed(t, runCLI(t, provider, dir, "type", "define", "other/type",
		"--param", "size=10", "--required", "path", "--description", "Other things"))

	r := runCLI(t, provider, dir, "type", "list")
	mustSucceed(t, r)
	for _, want := range []string{"my/type", "other/type", "size = 10", "path (required)", "Other things"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("type list missing %q:\n%s", want, r.stdout)
		}
	}

	r = runCLI(t, provider, dir, "type", "define", "other/type")
	if r.err == nil {
		t.Error("redefining a root type without --force succeeded")
	}
	mustSucceed(t, runCLI(t, provider, dir, "type", "define", "other/type", "--force"))

	mustSucceed(t, runCLI(t, provider, dir, "type", "remove", "other/type"))
	r = runCLI(t, provider, dir, "type", "remove", "other/type")
	if !errors.Is(r.err, discovery.ErrNoSuchType) {
		t.Errorf("second remove: error = %v, want ErrNoSuchType", r.err)
	}

	r = runCLI(t, provider, dir, "type", "define", "Not A Name")
	if r.err == nil {
		t.Error("invalid type name accepted")
	}
}

func TestCLI_ConfigLoadFailure(t *testing.T) {
	t.Parallel()

	dir, _ := newCLIProject(t)
	r := runCLI(t, staticConfig{err: errors.New("broken config")}, dir, "bind", "list")
	if r.err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(r.stderr, "broken config") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

func TestCLI_ConfigShow(t *testing.T) {
	t.Parallel()

	dir, provider := newCLIProject(t)
	r := runCLI(t, provider, dir, "config", "show")
	mustSucceed(t, r)
	for _, want := range []string{"pkgbind.json", "public", "info"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("config show missing %q:\n%s", want, r.stdout)
		}
	}

	r = runCLI(t, provider, dir, "config", "dump")
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, `resource_root: "public"`) {
		t.Errorf("config dump = %q", r.stdout)
	}
}

func TestCLI_ConfigInit(t *testing.T) {
	t.Parallel()

	dir, provider := newCLIProject(t)
	path := filepath.Join(t.TempDir(), "pkgbind", "config.cue")

	mustSucceed(t, runCLI(t, provider, dir, "--config", path, "config", "init"))
	if got := testutil.MustReadFile(t, path); !strings.Contains(got, "store_path") {
		t.Errorf("config.cue = %q", got)
	}
	if r := runCLI(t, provider, dir, "--config", path, "config", "init"); r.err == nil {
		t.Error("config init overwrote an existing file")
	}
}

func TestCLI_Issue(t *testing.T) {
	t.Parallel()

	dir, provider := newCLIProject(t)

	r := runCLI(t, provider, dir, "issue")
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, "type-not-found") || !strings.Contains(r.stdout, "Binding type not found") {
		t.Errorf("issue list = %q", r.stdout)
	}

	r = runCLI(t, provider, dir, "issue", "discovery-not-empty")
	mustSucceed(t, r)
	if !strings.Contains(r.stdout, "pkgbind build --force") {
		t.Errorf("issue output = %q", r.stdout)
	}

	if r := runCLI(t, provider, dir, "issue", "no-such-issue"); r.err == nil {
		t.Error("unknown issue accepted")
	}
}
