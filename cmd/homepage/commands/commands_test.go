package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/teranos/homepage/am"
)

// execute runs cmd under a throwaway root and returns what it printed
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	am.Reset()
	t.Cleanup(am.Reset)

	root := &cobra.Command{Use: "homepage", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(cmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{cmd.Name()}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}
