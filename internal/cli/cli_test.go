package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/raysh454/nyxguard/internal/cli"
	"github.com/raysh454/nyxguard/internal/engine"
	"github.com/raysh454/nyxguard/internal/scanner"
	"github.com/raysh454/nyxguard/internal/settings"
)

// writeConfig points the store at a fresh SQLite file so commands run in the
// same test share state.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("log:\n  level: error\nstore:\n  driver: sqlite\n  path: %s\nwebclient:\n  client: nethttp\n",
		filepath.Join(dir, "nyxguard.db"))
	path := filepath.Join(dir, "nyxguard.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAllowDenyAndShow(t *testing.T) {
	t.Parallel()
	cfg := writeConfig(t)

	out, err := run(t, cfg, "allow", "https://WWW.Example.com/login")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !strings.Contains(out, "Added example.com to the allowlist.") {
		t.Errorf("allow output = %q", out)
	}
	if _, err := run(t, cfg, "deny", "evil.test"); err != nil {
		t.Fatalf("deny: %v", err)
	}

	out, err = run(t, cfg, "settings", "show")
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	var st settings.Settings
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode settings: %v\n%s", err, out)
	}
	if !st.InAllowlist("example.com") || !st.InDenylist("evil.test") {
		t.Errorf("lists not persisted: allow=%v deny=%v", st.Allowlist, st.Denylist)
	}

	out, err = run(t, cfg, "settings", "reset")
	if err != nil {
		t.Fatalf("settings reset: %v", err)
	}
	st = settings.Settings{}
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if len(st.Allowlist) != 0 || len(st.Denylist) != 0 {
		t.Errorf("reset kept lists: %+v", st)
	}
}

func TestAllow_InvalidDomain(t *testing.T) {
	t.Parallel()
	_, err := run(t, writeConfig(t), "allow", "not a domain")
	if !errors.Is(err, settings.ErrInvalidDomain) {
		t.Errorf("expected ErrInvalidDomain, got %v", err)
	}
}

func TestListsImport(t *testing.T) {
	t.Parallel()
	cfg := writeConfig(t)

	file := filepath.Join(t.TempDir(), "deny.txt")
	if err := os.WriteFile(file, []byte("bad.test\nhttps://bad.test/x\n\nworse.test\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, cfg, "lists", "import", "deny", file)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := "Saved 2 domains to the denylist. Ignored invalid entries: https://bad.test/x"
	if strings.TrimSpace(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	if _, err := run(t, cfg, "lists", "import", "greylist", file); !errors.Is(err, settings.ErrInvalidList) {
		t.Errorf("expected ErrInvalidList, got %v", err)
	}
	if _, err := run(t, cfg, "lists", "import", "allow", filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Errorf("expected error for a missing file")
	}
}

func TestScan(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>Please sign in to verify your account</p>
<form><input type="password" name="p"></form></body></html>`)
	}))
	t.Cleanup(srv.Close)
	cfg := writeConfig(t)

	out, err := run(t, cfg, "scan", "--json", srv.URL+"/login")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var outcomes []scanner.Outcome
	if err := json.Unmarshal([]byte(out), &outcomes); err != nil {
		t.Fatalf("decode outcomes: %v\n%s", err, out)
	}
	if len(outcomes) != 1 || outcomes[0].Result == nil {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if !outcomes[0].Result.HasReason(engine.ReasonSuspiciousLogin) {
		t.Errorf("missing suspicious-login reason: %+v", outcomes[0].Result.Reasons)
	}

	out, err = run(t, cfg, "scan", srv.URL+"/login", "ftp://files.example.com/")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 scans failed") {
		t.Errorf("expected partial failure, got %v", err)
	}
	if !strings.HasPrefix(out, "URL") || !strings.Contains(out, engine.ReasonSuspiciousLogin) {
		t.Errorf("table output = %q", out)
	}
}

func TestScan_RequiresURL(t *testing.T) {
	t.Parallel()
	if _, err := run(t, writeConfig(t), "scan"); err == nil {
		t.Errorf("expected an argument error")
	}
}
