package main

import (
	"fmt"
	"io"
	"os"

	"github.com/llhd-ir/llhd/pkg/assembly"
	"github.com/llhd-ir/llhd/pkg/verify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode is set by the check command's RunE to the number of files
// that failed to parse or verify, since cobra's own return value only
// distinguishes success from failure, not a count.
var exitCode int

// reportFormat selects how check reports diagnostics: "text" (the
// default, "filename: message" lines) or "yaml" (a structured
// {file, unit, inst, message} record per diagnostic, for tooling that
// wants to consume verifier output without scraping text).
var reportFormat string

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "llhd-check [files...]",
		Short:   "llhd-check parses and verifies LLHD assembly files",
		Version: version,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	checkCmd := &cobra.Command{
		Use:           "check [files...]",
		Short:         "parse and verify each file, exit with the failure count",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode = checkFiles(args, out, errOut, reportFormat)
			return nil
		},
	}
	checkCmd.Flags().StringVar(&reportFormat, "report", "text", `diagnostic output format: "text" or "yaml"`)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(newTCMCmd(out, errOut))

	// Running llhd-check directly with file arguments and no subcommand
	// behaves like "llhd-check check ...", matching spec.md §6's plain
	// CLI contract; check remains available as an explicit subcommand
	// for discoverability alongside tcm.
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		exitCode = checkFiles(args, out, errOut, reportFormat)
		return nil
	}
	rootCmd.Flags().StringVar(&reportFormat, "report", "text", `diagnostic output format: "text" or "yaml"`)

	return rootCmd
}

// diagnostic is one yaml-reportable check failure.
type diagnostic struct {
	File    string `yaml:"file"`
	Unit    string `yaml:"unit,omitempty"`
	Inst    string `yaml:"inst,omitempty"`
	Message string `yaml:"message"`
}

// checkFiles parses and verifies each file in turn, reporting in
// either text or yaml form, and returns the count of files that failed
// (the process's exit code).
func checkFiles(paths []string, out, errOut io.Writer, format string) int {
	failed := 0
	var diags []diagnostic
	for _, path := range paths {
		fileDiags, ok := checkFile(path, out, errOut, format)
		diags = append(diags, fileDiags...)
		if !ok {
			failed++
		}
	}
	if format == "yaml" {
		if len(diags) > 0 {
			enc := yaml.NewEncoder(out)
			enc.Encode(diags)
			enc.Close()
		}
	}
	return failed
}

// checkFile parses, verifies and links path, returning the diagnostics
// collected (only populated in yaml mode, where reporting is deferred
// to the end of the run) and whether the file passed.
func checkFile(path string, out, errOut io.Writer, format string) ([]diagnostic, bool) {
	yamlMode := format == "yaml"
	report := func(msg string) {
		if !yamlMode {
			fmt.Fprintf(errOut, "%s: %s\n", path, msg)
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		if yamlMode {
			return []diagnostic{{File: path, Message: err.Error()}}, false
		}
		report(err.Error())
		return nil, false
	}

	mod, err := assembly.Parse(string(src))
	if err != nil {
		if yamlMode {
			return []diagnostic{{File: path, Message: err.Error()}}, false
		}
		report(err.Error())
		return nil, false
	}

	var diags []diagnostic
	ok := true
	if verrs := verify.VerifyModule(mod); len(verrs) > 0 {
		for _, e := range verrs {
			if yamlMode {
				inst := ""
				if e.HasInst {
					inst = fmt.Sprintf("%v", e.Inst)
				}
				diags = append(diags, diagnostic{File: path, Unit: mod.Name(e.Unit).String(), Inst: inst, Message: e.Message})
			} else {
				report(e.Error())
			}
		}
		ok = false
	}
	if _, linkErrs := mod.Link(); len(linkErrs) > 0 {
		for _, e := range linkErrs {
			if yamlMode {
				diags = append(diags, diagnostic{File: path, Message: e.Error()})
			} else {
				report(e.Error())
			}
		}
		ok = false
	}

	if ok && !yamlMode {
		fmt.Fprintf(out, "%s: ok\n", path)
	}
	return diags, ok
}
