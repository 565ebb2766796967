package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/perennia/storefront/internal/kernel"
	"github.com/perennia/storefront/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server with gRPC, queue workers and the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Run()
	},
}

// route:list builds the kernel without a database; nothing is queried
// while routes are registered.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered route",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := kernel.New(nil, kernel.Options{})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range app.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
