package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/fractalnoise/internal/sample"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Evaluate noise at points read from CSV",
	Long: `Sample reads points from a CSV file with an x,y,z,w header (only the first
dims columns are used), evaluates them in one batch and writes the points
with a value column.`,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().StringP("input", "i", "-", "Input CSV file (- for stdin)")
	sampleCmd.Flags().StringP("output", "o", "-", "Output CSV file (- for stdout)")

	for _, bf := range []struct{ key, flag string }{
		{"sample.input", "input"},
		{"sample.output", "output"},
	} {
		if err := viper.BindPFlag(bf.key, sampleCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runSample(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	n, err := buildNoise()
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if p := viper.GetString("sample.input"); p != "-" {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = cmd.OutOrStdout()
	if p := viper.GetString("sample.output"); p != "-" {
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	count, err := sample.Run(in, out, n)
	if err != nil {
		return err
	}
	logger.Debug("Sampled points", "noise", n.String(), "count", count)
	return nil
}
