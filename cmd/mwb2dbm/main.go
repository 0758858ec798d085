// Package main implements the mwb2dbm command line tool, converting a
// MySQL Workbench model into a pgModeler database model.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mwb2dbm/internal/convert"
	"mwb2dbm/internal/logging"
	"mwb2dbm/internal/pgm"
	"mwb2dbm/internal/triggercfg"
	"mwb2dbm/internal/wb"
	"mwb2dbm/internal/xmltree"
)

func main() {
	var (
		triggersPath string
		mergePaths   []string
		noCitext     bool
		noFKIndex    bool
		logLevel     string
		logFormat    string
	)

	rootCmd := &cobra.Command{
		Use:          "mwb2dbm <model.mwb>",
		Short:        "Convert a MySQL Workbench model into a pgModeler dbm model",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(logLevel, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := convert.Options{
				PrefixIndexNames: true,
				NoCitext:         noCitext,
				NoFKIndexes:      noFKIndex,
			}

			if triggersPath != "" {
				cfg, err := triggercfg.Load(triggersPath)
				if err != nil {
					return err
				}
				opts.Triggers = cfg
			}

			return run(args[0], opts, mergePaths)
		},
	}

	rootCmd.Flags().StringVar(&triggersPath, "triggers", "",
		"trigger definition file used to create triggers in the resulting dbm")
	rootCmd.Flags().StringArrayVar(&mergePaths, "merge", nil,
		"merge functions and aggregates from this dbm into the result (repeatable)")
	rootCmd.Flags().BoolVar(&noCitext, "no-citext", false,
		"do not convert char/varchar columns to citext")
	rootCmd.Flags().BoolVar(&noFKIndex, "no-fk-index", false,
		"do not create indexes composed entirely of foreign-key columns")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", zerolog.LevelInfoValue,
		"logging level [debug|info|warn]")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText,
		"logging format [text|json]")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run performs one conversion: extract, parse, build the schema graph,
// synthesize, merge, serialize. Nothing is written until every step
// has succeeded.
func run(mwbPath string, opts convert.Options, mergePaths []string) error {
	data, err := wb.ExtractModelDocument(mwbPath)
	if err != nil {
		return err
	}

	tree, err := xmltree.Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", wb.InnerDocumentName, err)
	}

	schema, err := wb.BuildSchema(tree)
	if err != nil {
		return err
	}

	model, err := convert.New(opts).Convert(schema)
	if err != nil {
		return err
	}

	for _, mergePath := range mergePaths {
		fragment, err := pgm.LoadFragment(mergePath)
		if err != nil {
			return err
		}
		pgm.Merge(model, fragment)
		log.Info().Str("fragment", mergePath).Msg("merged dbm fragment")
	}

	outPath := outputPath(mwbPath)
	if err := os.WriteFile(outPath, xmltree.Serialize(model), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("output", outPath).Msg("converted model written")

	return nil
}

// outputPath derives the destination file name from the source path.
func outputPath(mwbPath string) string {
	ext := filepath.Ext(mwbPath)
	return strings.TrimSuffix(mwbPath, ext) + ".dbm"
}
