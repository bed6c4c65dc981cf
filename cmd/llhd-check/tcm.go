package main

import (
	"fmt"
	"io"
	"os"

	"github.com/llhd-ir/llhd/pkg/assembly"
	"github.com/llhd-ir/llhd/pkg/ir"
	"github.com/llhd-ir/llhd/pkg/llhdmod"
	"github.com/llhd-ir/llhd/pkg/tcm"
	"github.com/spf13/cobra"
)

// newTCMCmd builds the tcm subcommand: parse a module, run temporal
// code motion to a fixed point, and re-print it, exercising the
// builder/analysis/pass stack end to end from the CLI.
func newTCMCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:           "tcm [files...]",
		Short:         "run temporal code motion on each file and print the result",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := runTCMOnFile(path, out, errOut); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runTCMOnFile(path string, out, errOut io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", path, err)
		return err
	}

	mod, err := assembly.Parse(string(src))
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", path, err)
		return err
	}

	llhdmod.RunToFixedPoint(mod, tcmPass)
	fmt.Fprint(out, assembly.Print(mod))
	return nil
}

// tcmPass adapts tcm.Run to the llhdmod.Pass signature: entities have
// no block-structured layout and have no temporal instructions to
// begin with, so they are left untouched rather than rejected.
func tcmPass(u ir.Unit) bool {
	tu, ok := u.(tcm.Unit)
	if !ok {
		return false
	}
	return tcm.Run(tu)
}
