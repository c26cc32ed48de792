// Command painel runs the delivery dashboard API and its maintenance tasks.
//
//	painel serve             # HTTP API, gRPC health, queue workers, scheduler
//	painel migrate           # run pending migrations
//	painel seed              # demo data
//	painel user:admin --email admin@loja.com --password segredo
//	painel pedidos:export    # CSV of every order to the storage disk
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/multidelivery/painel/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "painel",
	Short:         "Painel de pedidos: API e tarefas de manutenção",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(dbCheckCmd)
	rootCmd.AddCommand(userAdminCmd)

	// Orders
	rootCmd.AddCommand(pedidosHojeCmd)
	rootCmd.AddCommand(pedidosExportCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(queueFailedCmd)
	rootCmd.AddCommand(queueRetryCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
