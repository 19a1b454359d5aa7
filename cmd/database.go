package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/uyuni-project/dbjson/config"
	"github.com/uyuni-project/dbjson/schemareader"
	"github.com/uyuni-project/dbjson/store"
	"github.com/uyuni-project/dbjson/utils"
)

// optionFlags maps command line flags to the keys of the tuning file.
var optionFlags = map[string]string{
	"chunkSize":          "chunk_size",
	"keysetFactor":       "keyset_factor",
	"maxPendingValues":   "max_pending_values",
	"commitEveryRows":    "commit_every_rows",
	"commitEveryFlushes": "commit_every_flushes",
	"countEntriesFirst":  "count_entries_first",
	"maxEntries":         "max_entries",
	"compression":        "compression",
	"progressEvery":      "progress_every",
}

func openStore() (*store.DBStore, error) {
	if len(dsn) > 0 {
		if len(driverName) == 0 {
			return nil, errors.New("--driver is required with --dsn")
		}
		return store.Open(driverName, dsn)
	}
	if len(serverConfig) == 0 {
		return nil, errors.New("either --dsn or --serverConfig is required")
	}
	path, err := utils.GetAbsPath(serverConfig)
	if err != nil {
		return nil, err
	}
	password, err := getDBPassword(dbPassword, dbPasswordFile)
	if err != nil {
		return nil, err
	}
	driver, connectionString, err := schemareader.GetConnectionStringWithPassword(path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return store.Open(driver, connectionString)
}

func closeStore(s store.Store) {
	if err := s.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close the database connection")
	}
}

// loadOptions reads the tuning file, if any, and applies the flags the user set.
func loadOptions(flags *pflag.FlagSet) (*config.Options, error) {
	options := config.Default()
	if len(optionsFile) > 0 {
		path, err := utils.GetAbsPath(optionsFile)
		if err != nil {
			return nil, err
		}
		if options, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	changed := map[string]interface{}{}
	var err error
	flags.Visit(func(flag *pflag.Flag) {
		key, ok := optionFlags[flag.Name]
		if !ok || err != nil {
			return
		}
		var value interface{}
		switch flag.Value.Type() {
		case "int":
			value, err = flags.GetInt(flag.Name)
		case "int64":
			value, err = flags.GetInt64(flag.Name)
		case "bool":
			value, err = flags.GetBool(flag.Name)
		default:
			value = flag.Value.String()
		}
		changed[key] = value
	})
	if err != nil {
		return nil, err
	}
	if err := options.Merge(changed); err != nil {
		return nil, err
	}
	return options, nil
}

// getDBPassword retrieves the database password. In case of multiple sources, it prioritizes:
// 1) dbPasswordFile flag
// 2) stdin
// 3) dbPassword flag
// Returns trimmed password or dbPassword
func getDBPassword(dbPassword, dbPasswordFile string) (string, error) {
	if dbPasswordFile != "" {
		pwFileContent, err := os.ReadFile(dbPasswordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		return strings.TrimSpace(string(pwFileContent)), nil
	}

	// Check if stdin is piped (not a terminal)
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat stdin: %w", err)
	}
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		reader := bufio.NewReader(os.Stdin)
		pw, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		if pw = strings.TrimSpace(pw); pw != "" {
			return pw, nil
		}
	}

	// fallback to dbPassword
	return strings.TrimSpace(dbPassword), nil
}
