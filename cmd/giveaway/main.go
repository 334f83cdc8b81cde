// Command giveaway runs the giveaway entry service and its admin tooling.
package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" description:"path to the YAML config file" default:"config.yaml"`
}

var opts Options

var parser = flags.NewParser(&opts, flags.Default)

func main() {
	_, _ = parser.AddCommand("serve",
		"run the HTTP service",
		"Serves the public entry API and the admin API until interrupted.",
		&Serve{})
	_, _ = parser.AddCommand("block",
		"block an IP address",
		"Adds an administrator block for the address. Blocks never expire.",
		&Block{})
	_, _ = parser.AddCommand("unblock",
		"remove a restriction record",
		"Deletes one restriction record by id. Other records for the same address stay in force.",
		&Unblock{})
	_, _ = parser.AddCommand("restrictions",
		"list restriction records",
		"Prints every restriction record with its current status.",
		&Restrictions{})

	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
