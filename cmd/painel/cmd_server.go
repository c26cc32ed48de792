package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/multidelivery/painel/internal/kernel"
	"github.com/multidelivery/painel/internal/server"
)

// painel serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server, workers and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.Boot()
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Serve(ctx)
	},
}

// painel route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoutes(cmd.OutOrStdout())
	},
}

// printRoutes lists the routes without connecting to anything; the
// handlers are never invoked.
func printRoutes(out io.Writer) error {
	k := kernel.NewHTTPKernel((&server.App{}).Routes)
	infos := k.Router().Routes()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No named routes registered.")
		return nil
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Path != infos[j].Path {
			return infos[i].Path < infos[j].Path
		}
		return infos[i].Method < infos[j].Method
	})

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
