package main

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// defaultEditor is used when neither $VISUAL nor $EDITOR is set.
const defaultEditor = "vi"

func newEditCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the config file in $VISUAL or $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			editor := os.Getenv("VISUAL")
			if editor == "" {
				editor = os.Getenv("EDITOR")
			}
			if editor == "" {
				editor = defaultEditor
			}

			c := exec.Command(editor, flags.configPath)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return errors.Wrapf(err, "running %s", editor)
			}
			return nil
		},
	}
}
