package cmd

/*
Copyright © 2019 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

import (
	"fmt"
	"os"
	"strings"

	"github.com/francois-poidevin/flighttracker-co2/config"
	defaults "github.com/mcuadros/go-defaults"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flighttracker",
	Short: "Flighttracker follows the flights around a point and estimates their CO2 emissions",
	Long: `Flighttracker polls the OpenSky Network for the aircraft inside a circular
region, accumulates the distance and time each one is observed and converts the
distance into CO2 emissions with a per-aircraft performance table.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var (
	log     = newLogger()
	cfgFile string
	conf    = &config.Configuration{}
)

// command line flag -> configuration key
var flagKeys = map[string]string{
	"latitude":   "flighttracker.latitude",
	"longitude":  "flighttracker.longitude",
	"radius":     "flighttracker.radius",
	"refresh":    "flighttracker.refresh",
	"sinkerType": "flighttracker.sinkertype",
	"listen":     "http.listen",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(startHttpCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(configCmd)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Formatter = new(logrus.TextFormatter)
	l.Formatter.(*logrus.TextFormatter).DisableColors = true
	l.Formatter.(*logrus.TextFormatter).FullTimestamp = true
	l.Level = logrus.InfoLevel
	l.Out = os.Stdout
	return l
}

// bindFlags makes the flags of cmd override the configuration file and environment.
func bindFlags(cmd *cobra.Command) {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			log.WithFields(logrus.Fields{
				"flag": name,
				"err":  err,
			}).Error("Unable to bind flag")
		}
	}
}

func initConfig() {
	defaults.SetDefaults(conf)

	for k := range asEnvVariables(conf, "", false) {
		err := viper.BindEnv(strings.ToLower(strings.Replace(k, "_", ".", -1)), "FT_"+k)
		if err != nil {
			log.WithFields(logrus.Fields{
				"var": "FT_" + k,
			}).Error("Unable to bind environment variable")
		}
	}

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			log.WithFields(logrus.Fields{
				"err": err,
			}).Fatal("Unable to expand config path")
		}
		// If the config file doesn't exists, let's exit
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.WithFields(logrus.Fields{
				"err": err,
			}).Fatal("File doesn't exists")
		}

		log.WithFields(logrus.Fields{
			"File": path,
		}).Info("Reading configuration file")

		viper.SetConfigFile(path)
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			log.WithFields(logrus.Fields{
				"err": err,
			}).Fatal("Unable to read config")
		}
	}

	if err := viper.Unmarshal(conf); err != nil {
		log.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("Unable to parse config")
	}

	level, err := logrus.ParseLevel(conf.Log.Level)
	if err != nil {
		log.WithFields(logrus.Fields{
			"level": conf.Log.Level,
		}).Warn("Unknown log level, keeping info")
	} else {
		log.SetLevel(level)
	}

	if err := conf.Validate(); err != nil {
		log.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("Invalid configuration")
	}
}
