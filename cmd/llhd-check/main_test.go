package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestCheckFilesAllOK(t *testing.T) {
	dir := t.TempDir()
	good := writeTempFile(t, dir, "good.llhd", "func @f (i32) i32 {\nentry:\n    ret i32 %0\n}\n")

	var out, errOut bytes.Buffer
	n := checkFiles([]string{good}, &out, &errOut, "text")

	if n != 0 {
		t.Fatalf("expected 0 failures, got %d, stderr:\n%s", n, errOut.String())
	}
	if !strings.Contains(out.String(), "ok") {
		t.Fatalf("expected success output to mention ok, got %q", out.String())
	}
}

func TestCheckFilesReportsParseError(t *testing.T) {
	dir := t.TempDir()
	bad := writeTempFile(t, dir, "bad.llhd", "func @f ( {{{ not valid")

	var out, errOut bytes.Buffer
	n := checkFiles([]string{bad}, &out, &errOut, "text")

	if n != 1 {
		t.Fatalf("expected 1 failure, got %d", n)
	}
	if !strings.Contains(errOut.String(), bad+":") {
		t.Fatalf("expected error line to be prefixed with filename, got %q", errOut.String())
	}
}

func TestCheckFilesReportsMissingFile(t *testing.T) {
	var out, errOut bytes.Buffer
	n := checkFiles([]string{"/nonexistent/path/to/nowhere.llhd"}, &out, &errOut, "text")

	if n != 1 {
		t.Fatalf("expected 1 failure for a missing file, got %d", n)
	}
}

func TestCheckFilesCountsEachFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeTempFile(t, dir, "good.llhd", "func @f (i32) i32 {\nentry:\n    ret i32 %0\n}\n")
	bad1 := writeTempFile(t, dir, "bad1.llhd", "not llhd at all {{{")
	bad2 := writeTempFile(t, dir, "bad2.llhd", "also not llhd )))")

	var out, errOut bytes.Buffer
	n := checkFiles([]string{good, bad1, bad2}, &out, &errOut, "text")

	if n != 2 {
		t.Fatalf("expected 2 failures, got %d, stderr:\n%s", n, errOut.String())
	}
}

func TestCheckFilesYAMLReport(t *testing.T) {
	dir := t.TempDir()
	bad := writeTempFile(t, dir, "bad.llhd", "not llhd at all {{{")

	var out, errOut bytes.Buffer
	n := checkFiles([]string{bad}, &out, &errOut, "yaml")

	if n != 1 {
		t.Fatalf("expected 1 failure, got %d", n)
	}
	if !strings.Contains(out.String(), "file: "+bad) {
		t.Fatalf("expected yaml report to name the file, got %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Fatalf("expected yaml mode to report nothing on stderr, got %q", errOut.String())
	}
}

func TestCheckSubcommandRequiresAtLeastOneFile(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"check"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error when check is given no files")
	}
}

func TestRootCmdWithNoArgsShowsHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error for a bare invocation, got %v", err)
	}
	if !strings.Contains(out.String(), "llhd-check") {
		t.Fatalf("expected help output to mention the command name, got %q", out.String())
	}
}

func TestRootCmdWithFileRunsCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeTempFile(t, dir, "good.llhd", "func @f (i32) i32 {\nentry:\n    ret i32 %0\n}\n")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{good})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
}
