package main

import (
	"fmt"
	"os"

	"github.com/franz/media-tracker/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mtrack",
		Short: "Media Tracker - track movies, TV and anime, bulk-import from spreadsheets",
		Long: `mtrack keeps a local catalog of movies, TV shows and anime.

Its import command reads a spreadsheet of free-form entries (often messy
fansub release names), works out the titles they refer to, searches
AniList or TMDB for matching catalog entries, scores them, and flags what
is already tracked before anything is written.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: applyLogFlags,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/mtrack.yaml)")
	rootCmd.PersistentFlags().String("db", "mtrack.db", "media database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	viper.BindPFlag(util.KeyDB, rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	util.SetConfigDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("mtrack")
		viper.SetConfigType("yaml")
	}

	// MTRACK_DB, MTRACK_TMDB_API_KEY, ...
	viper.SetEnvPrefix("MTRACK")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.DebugLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

// applyLogFlags sets the console log level and colors, then validates the
// merged configuration
func applyLogFlags(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))
	return util.ValidateConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
