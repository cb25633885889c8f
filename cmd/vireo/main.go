// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command vireo starts the Vireo social backend.
//
// Configuration is read from config.yaml in the working directory when
// present, with environment variables taking precedence:
//
//   - VIREO_PORT: HTTP server port (default: 8940)
//   - VIREO_DATA_DIR: BadgerDB directory (default: ./vireo-data)
//   - VIREO_JWT_SECRET: HMAC secret for bearer tokens (empty disables auth)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//
// # Usage
//
//	# Build
//	go build -o vireo ./cmd/vireo
//
//	# Run
//	./vireo serve
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config mirrors config.yaml. Every field has an environment override.
type Config struct {
	Port      int    `yaml:"port"`
	DataDir   string `yaml:"data_dir"`
	JWTSecret string `yaml:"jwt_secret"`
	OTel      struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"otel"`
	GinMode string `yaml:"gin_mode"`
}

var config Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		loadConfig("config.yaml")
		applyEnvOverrides()
	}
}

// loadConfig reads the yaml config when the file exists. A missing file
// is not an error; env vars and defaults carry the service.
func loadConfig(path string) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Fatalf("Error reading %s: %v", path, err)
	}
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		log.Fatalf("Error parsing %s: %v", path, err)
	}
}

func applyEnvOverrides() {
	config.Port = getEnvInt("VIREO_PORT", config.Port)
	config.DataDir = getEnvString("VIREO_DATA_DIR", config.DataDir)
	config.JWTSecret = getEnvString("VIREO_JWT_SECRET", config.JWTSecret)
	config.OTel.Endpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", config.OTel.Endpoint)
	config.GinMode = getEnvString("GIN_MODE", config.GinMode)
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
