package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/peg/input"
	"github.com/dhamidi/peg/json"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var stream bool
	var window int

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a JSON file and print its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			var src input.Source
			if stream {
				s, closer, err := input.OpenStream(filename, input.WithWindow(window))
				if err != nil {
					return err
				}
				defer closer.Close()
				src = s
			} else {
				b, err := input.NewFile(filename)
				if err != nil {
					return err
				}
				src = b
			}

			v, err := json.Parse(src)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, json.Encode(v))
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "read the file through a bounded streaming window")
	cmd.Flags().IntVar(&window, "window", 64*1024, "streaming window size in bytes")

	return cmd
}
