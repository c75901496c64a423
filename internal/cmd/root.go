package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fractalnoise",
	Short: "Multi-octave fractal noise generator",
	Long: `fractalnoise layers several octaves of a coherent noise primitive
(Perlin, simplex or seamless simplex) into fractal noise.

It renders heightmaps, writes web map tilesets (folder or MBTiles), serves
tiles over HTTP and samples noise at points read from CSV.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	pf.String("output-dir", "./out", "Output directory for generated files")
	pf.Bool("verbose", false, "Enable verbose logging")
	pf.String("log-format", "text", "Log format (text, json)")

	pf.String("kind", primitive.KindSimplex, "Noise primitive (perlin, simplex, seamless)")
	pf.Int("dims", 2, "Noise dimensionality")
	pf.Int64("seed", 1337, "Deterministic seed for the primitive")
	pf.Int("octaves", fractal.DefaultOctaves, fmt.Sprintf("Number of octaves (%d-%d)", fractal.MinOctaves, fractal.MaxOctaves))
	pf.Float64("persistence", fractal.DefaultPersistence, "Amplitude ratio between consecutive octaves")
	pf.Float64("lacunarity", fractal.DefaultLacunarity, "Frequency ratio between consecutive octaves")
	pf.String("range", "", "Output range \"lo,hi\" (default: the primitive's native range)")
	pf.Int("parallelism", runtime.NumCPU(), "Goroutines used to expand large batches (1 disables)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"output-dir", "output-dir"},
		{"verbose", "verbose"},
		{"log-format", "log-format"},
		{"noise.kind", "kind"},
		{"noise.dims", "dims"},
		{"noise.seed", "seed"},
		{"noise.octaves", "octaves"},
		{"noise.persistence", "persistence"},
		{"noise.lacunarity", "lacunarity"},
		{"noise.range", "range"},
		{"noise.parallelism", "parallelism"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, pf.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("FRACTALNOISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
