package cmd

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/uyuni-project/dbjson/utils"
)

var rootCmd = &cobra.Command{
	Use:     "dbjson",
	Short:   "Export and import whole relational databases as JSON documents",
	Version: "0.1.0",
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

var cfgFile string
var logLevel string
var useSyslog bool
var serverConfig string
var driverName string
var dsn string
var dbPassword string
var dbPasswordFile string
var optionsFile string
var cpuProfile string
var memProfile string

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Location of configuration file")
	rootCmd.PersistentFlags().String("logLevel", "info", "application log level")
	rootCmd.PersistentFlags().Bool("syslog", false, "also send the log to syslog")
	rootCmd.PersistentFlags().String("serverConfig", "", "Server configuration file with the database connection (key = value)")
	rootCmd.PersistentFlags().String("driver", "", "database/sql driver: postgres, pgx, mysql, sqlserver, mssql, sqlite")
	rootCmd.PersistentFlags().String("dsn", "", "Data source name, takes precedence over serverConfig")
	rootCmd.PersistentFlags().String("dbPassword", "", "Database password, overrides the one of serverConfig")
	rootCmd.PersistentFlags().String("dbPasswordFile", "", "File containing the database password. If set, it will override the dbPassword flag.")
	rootCmd.PersistentFlags().String("options", "", "Pipeline tuning file (yaml)")
	rootCmd.PersistentFlags().String("cpuProfile", "", "cpuProfile export folder location")
	rootCmd.PersistentFlags().String("memProfile", "", "memProfile export folder location")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		log.Warn().Err(err).Msg("Failed to bind PFlags")
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logLevel = viper.GetString("logLevel")
		useSyslog = viper.GetBool("syslog")
		serverConfig = viper.GetString("serverConfig")
		driverName = viper.GetString("driver")
		dsn = viper.GetString("dsn")
		dbPassword = viper.GetString("dbPassword")
		dbPasswordFile = viper.GetString("dbPasswordFile")
		optionsFile = viper.GetString("options")
		cpuProfile = viper.GetString("cpuProfile")
		memProfile = viper.GetString("memProfile")

		logInit()
		cpuProfileInit()
		memProfileDump()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		cpuProfileTearDown()
	}
}

func initConfig() {
	if cfgFile != "" {
		path, err := utils.GetAbsPath(cfgFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to locate config file")
		}
		viper.SetConfigFile(path)

		if err := viper.ReadInConfig(); err != nil {
			log.Fatal().Err(err).Msg("Failed to read config file")
		}
	}
}

func logCallerMarshalFunction(file string, line int) string {
	paths := strings.Split(file, "/")
	callerFile := file
	foundSubDir := false
	for _, currentPath := range paths {
		if foundSubDir {
			if callerFile != "" {
				callerFile = callerFile + "/"
			}
			callerFile = callerFile + currentPath
		} else {
			if strings.Contains(currentPath, "dbjson") {
				foundSubDir = true
				callerFile = ""
			}
		}
	}
	return callerFile + ":" + strconv.Itoa(line)
}

func logInit() {
	outputs := []io.Writer{os.Stderr}
	if useSyslog {
		syslogger, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DEBUG|syslog.LOG_WARNING|syslog.LOG_ERR, "dbjson")
		if err == nil {
			outputs = append(outputs, zerolog.SyslogLevelWriter(syslogger))
		} else {
			fmt.Fprintf(os.Stderr, "syslog unavailable: %s\n", err)
		}
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(outputs...)).With().Timestamp().Caller().Logger()
	zerolog.CallerMarshalFunc = logCallerMarshalFunction
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Msg("dbjson started")
}

func cpuProfileInit() {
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile + "end_cpu_profile.prof")
		if err != nil {
			log.Error().Err(err).Msg("could not create CPU profile")
			return
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
	}
}

func cpuProfileTearDown() {
	if cpuProfile != "" {
		pprof.StopCPUProfile()
	}
}

func memProfileDump() {
	if log.Debug().Enabled() && len(memProfile) > 0 {
		go func() {
			count := 0
			for {
				time.Sleep(30 * time.Second)
				fileName := fmt.Sprintf("%s/memory_profile_%d.prof", memProfile, count)
				f, err := os.Create(fileName)
				if err != nil {
					log.Error().Err(err).Msgf("could not create memory profile file: %s", fileName)
					break
				}
				if err := pprof.WriteHeapProfile(f); err != nil {
					log.Error().Err(err).Msg("could not write memory profile")
				}
				f.Close()
				count++
			}
		}()
	}
}
