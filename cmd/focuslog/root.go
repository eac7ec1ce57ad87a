package main

import (
	"fmt"
	"os"

	"github.com/focuslog/focuslog/internal/config"
	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "focuslog",
	Short: "Sync focus sessions from the OS log into a local store",
	Long: `focuslog reads focus-session records from the macOS unified log,
pairs each session start with its activity summary, and stores the
completed sessions in a local SQLite database.

Run 'focuslog init' once, then 'focuslog sync' by hand or 'focuslog daemon'
to sync in the background.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Setup(cmd.OutOrStdout())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/focuslog/config.yaml)")
	rootCmd.PersistentFlags().String("store", "", "session store path")
	rootCmd.PersistentFlags().String("state", "", "state file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("state.path", rootCmd.PersistentFlags().Lookup("state"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
	)
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	config.ConfigureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && viper.GetString("config") != "" {
			fmt.Fprintf(os.Stderr, "%s failed to read config: %v\n", ui.RenderWarn("⚠"), err)
		}
	}
}
