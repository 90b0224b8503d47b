package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

func TestRegistry_Register_Apply(t *testing.T) {
	out := &bytes.Buffer{}
	ballsCmd := &cobra.Command{
		Use: "balls:report",
		Run: func(c *cobra.Command, args []string) {
			out.WriteString("0 balls unopened")
		},
	}
	Register(ballsCmd)
	Apply()

	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"balls:report"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.String() != "0 balls unopened" {
		t.Errorf("output = %q, want the report line", out.String())
	}
}
