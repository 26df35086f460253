// Package main is the entry point for the forecastd server.
package main

import (
	"os"

	"github.com/majako/sales-forecaster/cmd/forecastd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
