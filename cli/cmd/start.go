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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/francois-poidevin/flighttracker-co2/internal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start tracking the flights of the region",
	Long: `Poll the feed every <refresh> seconds for the flights of the region and
publish the live set and its statistics to the configured sinker (STDOUT|FILE|DB|SQLITE).
Stop with Ctrl-C.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bindFlags(cmd)
		initConfig()

		errExec := internal.Execute(ctx, log, *conf)
		if errExec != nil {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"Error": errExec,
			}).Error("Error in Execute processing")
			os.Exit(1)
		}
	},
}

func init() {
	startCmd.Flags().Float64("latitude", 53.3588, "region center latitude")
	startCmd.Flags().Float64("longitude", -2.2727, "region center longitude")
	startCmd.Flags().Float64("radius", 100, "region radius (km)")
	startCmd.Flags().Int("refresh", 20, "refresh time for scanning flight (sec)")
	startCmd.Flags().String("sinkerType", "STDOUT", "set the sinker type (STDOUT|FILE|DB|SQLITE)")
}
