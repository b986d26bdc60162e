// sketchmint turns a creative-coding sketch into a semantic model of
// its on-chain collection dependencies and generated contract source.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sketchmint/internal/chain"
	"sketchmint/internal/config"
	"sketchmint/internal/logging"
	"sketchmint/internal/metadata"
	"sketchmint/internal/pipeline"
	"sketchmint/internal/sketch"
)

var (
	cfgPath string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sketchmint",
	Short: "Compile creative-coding sketches into on-chain contracts",
	Long: `sketchmint analyzes a sketch's collection and trait dependencies,
previews live trait metadata from the chain, and generates contract
source embedding the sketch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		return logging.Initialize(level, cfg.Logging.Development)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [sketch.js]",
	Short: "Extract the sketch's collection, trait, and token-usage model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read sketch: %w", err)
		}
		return printJSON(sketch.Analyze(string(source)))
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [sketch.js]",
	Short: "Analyze the sketch and preview live trait metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read sketch: %w", err)
		}

		analysis := sketch.Analyze(string(source))
		if analysis.HasErrors() {
			return printJSON(analysis)
		}

		resolver, closeClient, err := newResolver(cmd.Context())
		if err != nil {
			return err
		}
		defer closeClient()

		batch := resolver.ResolveAll(cmd.Context(), analysis.Data)
		return printJSON(batch)
	},
}

var (
	genName     string
	genOut      string
	genTemplate string
	genOffline  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [sketch.js]",
	Short: "Generate contract source for a sketch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read sketch: %w", err)
		}

		opts := pipeline.Options{
			Name:         genName,
			MaxChunkSize: cfg.Generator.MaxChunkSize,
		}
		if genTemplate != "" {
			tmpl, terr := os.ReadFile(genTemplate)
			if terr != nil {
				return fmt.Errorf("failed to read template: %w", terr)
			}
			opts.Template = string(tmpl)
		}
		if !genOffline {
			resolver, closeClient, rerr := newResolver(cmd.Context())
			if rerr != nil {
				return rerr
			}
			defer closeClient()
			opts.Resolver = resolver
		}

		result, err := pipeline.Build(cmd.Context(), string(source), opts)
		if err != nil {
			return err
		}
		for _, issue := range result.Analysis.Warnings() {
			fmt.Fprintf(os.Stderr, "warning: %s\n", issue.Message)
		}

		if genOut == "" {
			fmt.Println(result.Source)
			return nil
		}
		if err := os.WriteFile(genOut, []byte(result.Source), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		logging.Get(logging.CategoryCLI).Infow("wrote contract source", "path", genOut, "bytes", len(result.Source))
		return nil
	},
}

// newResolver dials the configured endpoint and builds a metadata
// resolver over it.
func newResolver(ctx context.Context) (*metadata.Resolver, func(), error) {
	callTimeout, err := cfg.ChainCallTimeout()
	if err != nil {
		return nil, nil, err
	}
	httpTimeout, err := cfg.MetadataHTTPTimeout()
	if err != nil {
		return nil, nil, err
	}

	client, err := chain.Dial(ctx, cfg.Chain.Endpoint, cfg.Chain.ChainID, callTimeout)
	if err != nil {
		return nil, nil, err
	}
	return metadata.NewResolver(client, cfg.Metadata.IPFSGateway, httpTimeout), client.Close, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (yaml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	generateCmd.Flags().StringVar(&genName, "name", "", "contract name (defaults to Sketch)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output file (defaults to stdout)")
	generateCmd.Flags().StringVar(&genTemplate, "template", "", "override the base contract template")
	generateCmd.Flags().BoolVar(&genOffline, "offline", false, "skip metadata resolution, embed zero values")

	rootCmd.AddCommand(analyzeCmd, resolveCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
