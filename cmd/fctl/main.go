// Package main is the entry point for the fctl CLI client.
package main

import (
	"github.com/majako/sales-forecaster/cmd/fctl/cmd"
)

func main() {
	cmd.Execute()
}
