// SPDX-FileCopyrightText: 2023 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/uyuni-project/dbjson/schemareader"
)

// tablesCmd represents the tables command
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "list the tables an export would contain, in export order",
	Run:   runTables,
}

var dot bool

func init() {
	tablesCmd.Flags().BoolVar(&dot, "dot", false, "print the schema as a dot diagram")
	tablesCmd.Args = cobra.NoArgs
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to connect to the database")
	}
	defer closeStore(s)

	if dot {
		tables, err := schemareader.ReadSchema(s, s.Platform())
		if err != nil {
			log.Fatal().Err(err).Msg("Unable to read the schema")
		}
		if err := schemareader.DumpToGraphviz(cmd.OutOrStdout(), tables); err != nil {
			log.Fatal().Err(err).Msg("Unable to write the dot diagram")
		}
		return
	}

	tables, err := s.ListTables()
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to read the schema")
	}
	if err := printTables(cmd.OutOrStdout(), tables); err != nil {
		log.Fatal().Err(err).Msg("Unable to print the tables")
	}
}

func printTables(w io.Writer, tables []schemareader.Table) error {
	for _, table := range tables {
		line := table.Name
		if len(table.PKColumns) > 0 {
			line += " (" + strings.Join(table.PKColumns, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
