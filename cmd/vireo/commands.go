// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vireolabs/vireo/pkg/logging"
	"github.com/vireolabs/vireo/services/social"
)

var rootCmd = &cobra.Command{
	Use:   "vireo",
	Short: "Vireo is a social graph backend",
	Long: `Vireo serves the connection graph, presence registry, feed, and
notification fan-out over HTTP and WebSocket.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the social backend HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		logger := logging.New(logging.Config{
			Level:   logging.LevelInfo,
			Service: "social",
			JSON:    true,
		})
		defer logger.Close()
		slog.SetDefault(logger.Slog())

		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "./vireo-data"
		}

		svc, err := social.New(social.Config{
			Port:          config.Port,
			DataDir:       dataDir,
			JWTSecret:     config.JWTSecret,
			OTelEndpoint:  config.OTel.Endpoint,
			GinMode:       config.GinMode,
			EnableMetrics: true,
		})
		if err != nil {
			log.Fatalf("Failed to create social service: %v", err)
		}

		if err := svc.Run(); err != nil {
			log.Fatalf("Social service error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
