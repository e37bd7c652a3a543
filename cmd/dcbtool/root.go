// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ExterraGroup/scdatatools/log"
)

var (
	cfgFile string
	verbose bool
	logger  *log.Helper
)

var rootCmd = &cobra.Command{
	Use:   "dcbtool",
	Short: "Inspect DataCore Binary, P4K, and CryXmlB game data files",
	Long: `dcbtool reads a space-simulation game's binary data formats
directly: DataCore Binary (.dcb) record databases, P4K archives, and the
CryXmlB binary XML documents commonly stored inside them.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.LevelWarn
		if verbose {
			level = log.LevelDebug
		}
		logger = log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(level)))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.dcbtool.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".dcbtool")
	}

	viper.SetEnvPrefix("dcbtool")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
