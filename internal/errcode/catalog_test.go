package errcode

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCoversEveryCode(t *testing.T) {
	c := Default()
	codes := []Code{
		Unauthenticated, BadRequest, Validation, TooManyRequests, Internal, Timeout,
		InvalidPhone, InvalidEmail, MissingName, MissingPassword,
		AdminNotFound, ActivationCodeMissing, ActivationCodeMismatch,
		WrongPassword, NotEnabled, EmailTaken,
		CacheUnavailable, StorageFailure,
	}
	for _, code := range codes {
		if got := c.Message(code); got == "" || got == fmt.Sprintf("Unknown error (%d)", int(code)) {
			t.Errorf("code %d has no default message", code)
		}
	}
}

func TestMessageUnknownCode(t *testing.T) {
	c := Default()
	if got := c.Message(Code(9999)); got != "Unknown error (9999)" {
		t.Errorf("got %q, want %q", got, "Unknown error (9999)")
	}
	if got := c.Message(OK); got != "success" {
		t.Errorf("got %q, want success", got)
	}
}

func TestLoadOverlaysDirectory(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "admin.yaml"), []byte("3001: \"no such admin\"\n7001: \"custom\"\n"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Message(AdminNotFound); got != "no such admin" {
		t.Errorf("override: got %q", got)
	}
	if got := c.Message(Code(7001)); got != "custom" {
		t.Errorf("custom code: got %q", got)
	}
	if got := c.Message(WrongPassword); got != "Incorrect password" {
		t.Errorf("default kept: got %q", got)
	}
}

func TestLoadMissingDirFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != Default().Len() {
		t.Errorf("Len = %d, want %d", c.Len(), Default().Len())
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("not: [valid"), 0644)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}
