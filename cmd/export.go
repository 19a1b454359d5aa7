package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/uyuni-project/dbjson/dumper"
	"github.com/uyuni-project/dbjson/progress"
	"github.com/uyuni-project/dbjson/storage"
	"github.com/uyuni-project/dbjson/utils"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every table of the database into a JSON document",
	Run:   runExport,
}

var output string

func init() {
	exportCmd.Flags().StringVar(&output, "output", "export.json", "Location of the document, a local path or s3://bucket/key")
	exportCmd.Flags().String("compression", "none", "none, gzip or zstd (inferred from the output extension when none)")
	exportCmd.Flags().Int("chunkSize", dumper.DefaultChunkSize, "rows fetched per page")
	exportCmd.Flags().Int("keysetFactor", dumper.DefaultKeysetFactor, "tables larger than keysetFactor pages are paged by primary key")
	exportCmd.Flags().Int64("progressEvery", 1000, "log progress every N rows")
	exportCmd.Args = cobra.NoArgs

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	options, err := loadOptions(cmd.Flags())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid options")
	}
	compression, err := storage.ParseCompression(options.Compression)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid options")
	}
	target := output
	if !storage.IsS3(target) {
		if target, err = utils.GetAbsPath(output); err != nil {
			log.Fatal().Err(err).Msg("Invalid output")
		}
	}
	if compression == storage.None {
		compression = storage.CompressionFromPath(target)
	}

	s, err := openStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to connect to the database")
	}
	defer closeStore(s)

	log.Info().Msgf("Export started to %s", target)
	sink, err := storage.OpenSink(target, compression)
	if err != nil {
		log.Fatal().Err(err).Msgf("Unable to open %s", target)
	}
	exporter := dumper.NewExporter(s, append(options.ExportOptions(),
		dumper.WithProgress(progress.NewLogListener(log.Logger, options.ProgressEvery)))...)
	total, err := exporter.Export(sink)
	if err != nil {
		if abortErr := sink.Abort(err); abortErr != nil {
			log.Warn().Err(abortErr).Msgf("failed to discard %s", target)
		}
		log.Fatal().Err(err).Msg("Export failed")
	}
	if err := sink.Close(); err != nil {
		log.Fatal().Err(err).Msgf("Export failed, %s is incomplete", target)
	}

	if !storage.IsS3(target) {
		if err := storage.WriteChecksumFile(target, sink.Checksum()); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
	}
	log.Info().Msgf("Export done: %d rows written to %s (xxh3 %s)", total, target, sink.Checksum())
}
