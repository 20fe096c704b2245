// ABOUTME: Entry point for the ticketdesk CLI
// ABOUTME: Command-line client for the ticketdesk support backend

package main

import (
	"fmt"
	"os"

	"github.com/markalston/ticketdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
