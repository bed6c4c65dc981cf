package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestTCMSubcommandReprintsModule(t *testing.T) {
	dir := t.TempDir()
	src := "func @f (i32) i32 {\nentry:\n    ret i32 %0\n}\n"
	path := writeTempFile(t, dir, "f.llhd", src)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"tcm", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v, stderr: %s", err, errOut.String())
	}
	if !strings.Contains(out.String(), "func @f") {
		t.Fatalf("expected reprinted output to contain the function header, got %q", out.String())
	}
}

func TestTCMSubcommandRejectsBadFile(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"tcm", "/nonexistent/path.llhd"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
