package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/peg/input"
	"github.com/dhamidi/peg/json"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate JSON files, printing a diagnostic per failure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, filename := range args {
				src, err := input.NewFile(filename)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					failed++
					continue
				}
				if err := json.Check(src); err != nil {
					fmt.Fprintln(os.Stderr, err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}

	return cmd
}
