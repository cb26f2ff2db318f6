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
	"time"

	"github.com/francois-poidevin/flighttracker-co2/internal/app/export"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/feed"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	snapshotOutput  string
	snapshotJSON    string
	snapshotCSV     string
	snapshotTimeout time.Duration
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export the flights of the region once, as JSON and CSV",
	Long: `Fetch a single snapshot of the feed, keep the flights inside the region and
write them to <output>/flights.json and <output>/flights.csv. Nothing is written
when the region is empty.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bindFlags(cmd)
		initConfig()

		ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
		defer cancel()

		exporter := &export.Exporter{
			Log:    log,
			Feed:   feed.New(log, conf.Flighttracker.Feedurl),
			Folder: snapshotOutput,
			JSON:   snapshotJSON,
			CSV:    snapshotCSV,
			Clock:  time.Now,
		}
		if _, err := exporter.Run(ctx, conf.Region()); err != nil {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"Error": err,
			}).Error("Unable to export snapshot")
			os.Exit(1)
		}
	},
}

func init() {
	snapshotCmd.Flags().Float64("latitude", 53.3588, "region center latitude")
	snapshotCmd.Flags().Float64("longitude", -2.2727, "region center longitude")
	snapshotCmd.Flags().Float64("radius", 100, "region radius (km)")
	snapshotCmd.Flags().StringVar(&snapshotOutput, "output", ".", "output folder")
	snapshotCmd.Flags().StringVar(&snapshotJSON, "json", "flights.json", "JSON output file name")
	snapshotCmd.Flags().StringVar(&snapshotCSV, "csv", "flights.csv", "CSV output file name")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 30*time.Second, "feed request timeout")
}
