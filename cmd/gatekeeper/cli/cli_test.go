package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd("1.2.3", "abc", "today")
	want := []string{"serve", "stop", "status", "version", "config", "keys", "admin", "token", "openapi", "mcp"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q missing", name)
		}
	}
	for _, path := range [][]string{{"admin", "create"}, {"admin", "list"}, {"admin", "enable"}, {"keys", "generate"}, {"token", "verify"}, {"config", "init"}, {"config", "show"}} {
		if cmd, _, err := root.Find(path); err != nil || cmd.Name() != path[1] {
			t.Errorf("subcommand %v missing", path)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	cmd := newVersionCmd("1.2.3", "abc", "today")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), `"commit": "abc"`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://gk:secret@db:5432/gk", "postgres://gk:********@db:5432/gk"},
		{"gk:secret@tcp(db:3306)/gk", "gk:********@tcp(db:3306)/gk"},
		{"postgres://gk@db:5432/gk", "postgres://gk@db:5432/gk"},
	}
	for _, tt := range tests {
		if got := redactDSN(tt.in); got != tt.want {
			t.Errorf("redactDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactNested(t *testing.T) {
	settings := map[string]interface{}{
		"redis":    map[string]interface{}{"password": "hunter2", "addr": "127.0.0.1:6379"},
		"database": map[string]interface{}{"dsn": "postgres://gk:pw@db/gk"},
	}
	redact(settings)

	redis := settings["redis"].(map[string]interface{})
	if redis["password"] != "********" || redis["addr"] != "127.0.0.1:6379" {
		t.Errorf("redis = %v", redis)
	}
	if dsn := settings["database"].(map[string]interface{})["dsn"]; dsn != "postgres://gk:********@db/gk" {
		t.Errorf("dsn = %v", dsn)
	}
}
