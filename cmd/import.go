// SPDX-FileCopyrightText: 2023 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/uyuni-project/dbjson/importer"
	"github.com/uyuni-project/dbjson/progress"
	"github.com/uyuni-project/dbjson/storage"
	"github.com/uyuni-project/dbjson/utils"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON document into the database",
	Long: `Import a JSON document into the database.

Rows are committed periodically. A failing import leaves the rows committed
before the failure in the database, it is not rolled back as a whole.`,
	Run: runImport,
}

var input string
var stream bool
var skipVerify bool

func init() {
	importCmd.Flags().StringVar(&input, "input", "export.json", "Location of the document, a local path or s3://bucket/key")
	importCmd.Flags().BoolVar(&stream, "stream", false, "Stream the document instead of loading it in memory")
	importCmd.Flags().BoolVar(&skipVerify, "skipVerify", false, "Skip verification of the xxh3 checksum file")
	importCmd.Flags().Bool("countEntriesFirst", false, "Scan the document once to size the progress (stream mode)")
	importCmd.Flags().Int64("maxEntries", 0, "Expected number of rows, for the progress when not counting (stream mode)")
	importCmd.Flags().Int("maxPendingValues", importer.DefaultMaxPendingValues, "bind values sent per batch")
	importCmd.Flags().Int("commitEveryRows", importer.DefaultCommitEveryRows, "commit after this many rows")
	importCmd.Flags().Int("commitEveryFlushes", importer.DefaultCommitEveryFlushes, "commit after this many batches")
	importCmd.Flags().Int64("progressEvery", 1000, "log progress every N rows")
	importCmd.Args = cobra.NoArgs

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) {
	options, err := loadOptions(cmd.Flags())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid options")
	}
	source := input
	if !storage.IsS3(source) {
		if source, err = utils.GetAbsPath(input); err != nil {
			log.Fatal().Err(err).Msg("Invalid input")
		}
		verifyInput(source)
	}

	s, err := openStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to connect to the database")
	}
	defer closeStore(s)

	log.Info().Msgf("starting import from %s", source)
	log.Warn().Msg("a failing import leaves the database partially imported")
	opts := []importer.Option{
		importer.WithOptions(options.ImportOptions()),
		importer.WithProgress(progress.NewLogListener(log.Logger, options.ProgressEvery)),
	}
	var warnings []importer.SchemaMismatchWarning
	if stream {
		streamImporter, err := importer.NewJSONStreamImporter(s, opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("Unable to read the database tables")
		}
		err = streamImporter.ImportFile(source)
		if err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}
		warnings = streamImporter.Warnings()
	} else {
		memoryImporter, err := importer.NewJSONImporter(s, opts...)
		if err != nil {
			log.Fatal().Err(err).Msg("Unable to read the database tables")
		}
		err = memoryImporter.ImportFile(source)
		if err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}
		warnings = memoryImporter.Warnings()
	}
	if len(warnings) > 0 {
		log.Warn().Msgf("%d tables of the document do not exist and were skipped", len(warnings))
	}
	log.Info().Msg("import finished")
}

func verifyInput(path string) {
	if skipVerify {
		return
	}
	exists, err := utils.FileExists(storage.ChecksumPath(path))
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to check the checksum file")
	}
	if !exists {
		log.Warn().Msgf("no checksum file %s, the document is not verified", storage.ChecksumPath(path))
		return
	}
	if err := storage.VerifyChecksumFile(path); err != nil {
		log.Fatal().Err(err).Msg("Checksum check of import file failed!")
	}
	log.Info().Msg("Import data validated")
}
