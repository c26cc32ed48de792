package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/cache"
	"github.com/multidelivery/painel/pkg/database"
	"github.com/multidelivery/painel/pkg/storage"
)

const hojeCount = 8

func pedidoService() *services.PedidoService {
	return services.NewPedidoService(database.DB, cache.NewMemory(), nil)
}

// painel pedidos:hoje
var pedidosHojeCmd = &cobra.Command{
	Use:   "pedidos:hoje",
	Short: "Move the first orders to today so the dashboard has data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		moved, err := pedidoService().MoverParaHoje(context.Background(), hojeCount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range moved {
			fmt.Fprintf(out, "  • #%d → %s\n", p.NumeroPedido, p.CreatedAt.Format("02/01/2006 15:04"))
		}
		fmt.Fprintf(out, "✅ %d pedido(s) movidos para hoje\n", len(moved))
		return nil
	},
}

// painel pedidos:export
var pedidosExportCmd = &cobra.Command{
	Use:   "pedidos:export",
	Short: "Export every order as CSV to the storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		storage.Connect()

		disk, err := storage.Default()
		if err != nil {
			return err
		}

		ctx := context.Background()
		var buf bytes.Buffer
		n, err := pedidoService().ExportCSV(ctx, &buf)
		if err != nil {
			return err
		}

		path := fmt.Sprintf("exports/pedidos-%s.csv", time.Now().Format("2006-01-02-150405"))
		if err := disk.PutStream(ctx, path, &buf); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %d pedido(s) exportados: %s\n", n, disk.URL(path))
		return nil
	},
}
