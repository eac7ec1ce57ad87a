// Package config loads focuslog settings from the config file, FOCUSLOG_*
// environment variables and command-line flags through viper.
package config
