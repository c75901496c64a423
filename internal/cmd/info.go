package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the configured noise and its octave weights",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	n, err := buildNoise()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, n.String())
	fmt.Fprintln(w, n.Primitive())

	weights := n.Weights()
	freq := 1.0
	var b strings.Builder
	for i, wt := range weights {
		fmt.Fprintf(&b, "octave %d  frequency %-8g weight %.6f\n", i, freq, wt)
		freq *= n.Lacunarity()
	}
	fmt.Fprint(w, b.String())
	return nil
}
