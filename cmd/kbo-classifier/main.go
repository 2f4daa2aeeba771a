package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oxygene76/kbo-classifier/internal/types"
	"github.com/oxygene76/kbo-classifier/pkg/classify"
	"github.com/oxygene76/kbo-classifier/pkg/ephemeris"
	"github.com/oxygene76/kbo-classifier/pkg/utils"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kbo-classifier",
		Short: "KBO dynamical population classifier",
		Long: `Classifies Kuiper Belt Objects into dynamical populations (Resonant,
Classical, Detached, Scattering) from short orbital-evolution simulations,
using a pretrained gradient-boosted model over 55 trajectory features.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kbo-classifier/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		initCmd(),
		classifyCmd(),
		trainCmd(),
	)

	cobra.OnInitialize(initConfig)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}

		viper.AddConfigPath(home + "/.kbo-classifier")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize client configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.SaveConfig(utils.DefaultConfig())
		},
	}
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a body from a trajectory file, orbital elements, or a catalog name",
	}

	cmd.AddCommand(
		fromFileCmd(),
		fromElementsCmd(),
		fromJPLCmd(),
	)

	return cmd
}

func fromFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "from-file",
		Short: "Classify from a tabular trajectory file (101 checkpoints)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			columns, _ := cmd.Flags().GetIntSlice("columns")

			pipeline, cleanup, err := buildPipeline(false, "")
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := pipeline.ClassifyFile(input, columns)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}

	cmd.Flags().String("input", "", "trajectory file (t, a, e, i, Omega, omega)")
	cmd.Flags().IntSlice("columns", classify.DefaultColumnOrder, "column index mapping")
	cmd.MarkFlagRequired("input")

	return cmd
}

func fromElementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "from-elements",
		Short: "Classify from classical orbital elements at an epoch",
		RunE: func(cmd *cobra.Command, args []string) error {
			epoch, _ := cmd.Flags().GetFloat64("epoch")
			trace, _ := cmd.Flags().GetBool("trace")

			target := classify.TargetElements{}
			target.SemiMajorAxis, _ = cmd.Flags().GetFloat64("a")
			target.Eccentricity, _ = cmd.Flags().GetFloat64("e")
			target.Inclination, _ = cmd.Flags().GetFloat64("i")
			target.AscendingNode, _ = cmd.Flags().GetFloat64("node")
			target.ArgPerihelion, _ = cmd.Flags().GetFloat64("peri")
			target.MeanAnomaly, _ = cmd.Flags().GetFloat64("mean-anomaly")
			target.Barycentric, _ = cmd.Flags().GetBool("barycentric")

			pipeline, cleanup, err := buildPipeline(trace, "elements")
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := pipeline.ClassifyElements(cmd.Context(), epoch, target)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}

	cmd.Flags().Float64("epoch", 0, "epoch as Julian Date (0 = today)")
	cmd.Flags().Float64("a", 0, "semi-major axis (AU)")
	cmd.Flags().Float64("e", 0, "eccentricity")
	cmd.Flags().Float64("i", 0, "inclination (deg)")
	cmd.Flags().Float64("node", 0, "longitude of ascending node (deg)")
	cmd.Flags().Float64("peri", 0, "argument of perihelion (deg)")
	cmd.Flags().Float64("mean-anomaly", 0, "mean anomaly (deg)")
	cmd.Flags().Bool("barycentric", false, "elements are barycentric rather than heliocentric")
	cmd.Flags().Bool("trace", false, "write a simulation trace file")
	cmd.MarkFlagRequired("a")
	cmd.MarkFlagRequired("e")
	cmd.MarkFlagRequired("i")

	return cmd
}

func fromJPLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "from-jpl",
		Short: "Classify a catalog object resolved through JPL Horizons",
		RunE: func(cmd *cobra.Command, args []string) error {
			epoch, _ := cmd.Flags().GetFloat64("epoch")
			object, _ := cmd.Flags().GetString("object")
			trace, _ := cmd.Flags().GetBool("trace")

			pipeline, cleanup, err := buildPipeline(trace, object)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := pipeline.ClassifyJPL(cmd.Context(), epoch, object)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}

	cmd.Flags().Float64("epoch", 0, "epoch as Julian Date (0 = today)")
	cmd.Flags().String("object", "", "catalog designation, e.g. 'Pluto' or '2014 MU69'")
	cmd.Flags().Bool("trace", false, "write a simulation trace file")
	cmd.MarkFlagRequired("object")

	return cmd
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Training data utilities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "table-info",
		Short: "Summarize a training table (securely classified rows only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := classify.LoadTrainingTable(args[0])
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			for _, label := range table.Labels {
				counts[label]++
			}

			fmt.Printf("Rows: %d\n", len(table.IDs))
			for label, n := range counts {
				fmt.Printf("  %-12s %d\n", label, n)
			}
			return nil
		},
	})

	return cmd
}

// buildPipeline wires the pipeline from configuration: Horizons provider
// with optional sqlite cache, pretrained model, trace destination.
func buildPipeline(trace bool, traceTag string) (*classify.Pipeline, func(), error) {
	config, err := utils.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	horizons := ephemeris.NewHorizons(time.Duration(config.Ephemeris.TimeoutSeconds) * time.Second)
	if config.Ephemeris.Endpoint != "" {
		horizons.BaseURL = config.Ephemeris.Endpoint
	}

	cleanup := func() {}
	if config.Ephemeris.CachePath != "" {
		cache, err := ephemeris.OpenCache(config.Ephemeris.CachePath)
		if err != nil {
			log.Printf("Warning: ephemeris cache unavailable: %v", err)
		} else {
			horizons.Cache = cache
			cleanup = func() { cache.Close() }
		}
	}

	model, err := classify.LoadGBM(config.Classifier.ModelPath, classify.Labels(config.Classifier.Labels))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	pipeline := &classify.Pipeline{
		Ephemeris:   horizons,
		Classifier:  model,
		InitialStep: config.Simulation.InitialStepYears,
	}
	if trace {
		name := fmt.Sprintf("%s_%d.trace", sanitize(traceTag), time.Now().Unix())
		pipeline.TracePath = filepath.Join(config.Simulation.TraceDir, name)
	}

	return pipeline, cleanup, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' {
			return '_'
		}
		return r
	}, s)
}

func printResult(result *types.ClassificationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
