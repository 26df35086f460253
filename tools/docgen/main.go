// Package main generates CLI reference documentation from the fctl command tree.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/majako/sales-forecaster/cmd/fctl/cmd"
)

func main() {
	output := flag.String("output", "docs/fctl", "output directory for generated markdown")
	flag.Parse()

	if err := os.MkdirAll(*output, 0o750); err != nil {
		log.Fatalf("creating output directory %s: %v", *output, err)
	}

	root := cmd.Root()
	root.DisableAutoGenTag = true

	if err := doc.GenMarkdownTree(root, *output); err != nil {
		log.Fatalf("generating fctl docs: %v", err)
	}

	fmt.Printf("fctl docs generated in %s/\n", *output)
}
