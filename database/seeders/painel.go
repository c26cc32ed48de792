package seeders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/app/repositories"
	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/pkg/cache"
)

func init() {
	Register("admin", SeedAdmin)
	Register("catalogo", SeedCatalogo)
	Register("pedidos", SeedPedidos)
}

// SeedAdmin upserts the dashboard administrator from ADMIN_* settings.
func SeedAdmin(ctx context.Context, db *gorm.DB) error {
	email := config.Get("ADMIN_EMAIL", "admin@multidelivery.com")
	password := config.Get("ADMIN_PASSWORD", "admin123")
	name := config.Get("ADMIN_NAME", "Administrador")
	_, err := services.NewAuthService(db).EnsureAdmin(ctx, email, name, password)
	return err
}

func str(s string) *string { return &s }

var demoClientes = []services.NovoCliente{
	{Nome: "Maria Silva", Email: str("maria@email.com"), Telefone: str("(11) 98765-4321"), Endereco: str("Rua das Flores, 123 - Centro")},
	{Nome: "João Santos", Email: str("joao@email.com"), Telefone: str("(11) 97654-3210"), Endereco: str("Av. Paulista, 1000 - Bela Vista")},
	{Nome: "Ana Oliveira", Email: str("ana@email.com"), Telefone: str("(11) 96543-2109"), Endereco: str("Rua Augusta, 500 - Consolação")},
	{Nome: "Pedro Costa", Email: str("pedro@email.com"), Telefone: str("(11) 95432-1098"), Endereco: str("Rua Oscar Freire, 200 - Jardins")},
	{Nome: "Carla Souza", Email: str("carla@email.com"), Telefone: str("(11) 94321-0987"), Endereco: str("Av. Brasil, 750 - Jardim América")},
}

var demoProdutos = []services.NovoProduto{
	{Nome: "Pizza Margherita", Descricao: str("Molho de tomate, mussarela e manjericão"), Preco: decimal.RequireFromString("45.90"), Estoque: 50},
	{Nome: "Pizza Calabresa", Descricao: str("Calabresa fatiada com cebola"), Preco: decimal.RequireFromString("42.90"), Estoque: 50},
	{Nome: "Hambúrguer Artesanal", Descricao: str("Blend 180g, queijo cheddar e bacon"), Preco: decimal.RequireFromString("32.50"), Estoque: 40},
	{Nome: "Batata Frita Grande", Descricao: str("Porção de 400g"), Preco: decimal.RequireFromString("18.00"), Estoque: 80},
	{Nome: "Refrigerante 2L", Descricao: str("Coca-Cola, Guaraná ou Fanta"), Preco: decimal.RequireFromString("12.00"), Estoque: 100},
	{Nome: "Suco Natural 500ml", Descricao: str("Laranja, limão ou maracujá"), Preco: decimal.RequireFromString("9.50"), Estoque: 60},
	{Nome: "Açaí 500ml", Descricao: str("Com granola e banana"), Preco: decimal.RequireFromString("22.00"), Estoque: 30},
	{Nome: "Pudim de Leite", Descricao: str("Fatia generosa"), Preco: decimal.RequireFromString("11.90"), Estoque: 25},
}

// SeedCatalogo inserts the demo customers and products once.
func SeedCatalogo(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&models.Cliente{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	catalog := services.NewCatalogService(db)
	for _, c := range demoClientes {
		if _, err := catalog.CreateCliente(ctx, c); err != nil {
			return err
		}
	}
	for _, p := range demoProdutos {
		if _, err := catalog.CreateProduto(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

const (
	seedPedidos = 15
	seedDays    = 7
)

var seedObservacoes = []string{"", "Sem cebola", "Tocar o interfone", "Troco em notas pequenas", ""}

// SeedPedidos places random orders spread over the last week. Statuses are
// advanced along the lifecycle so every column of the dashboard has data.
func SeedPedidos(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&models.Pedido{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	catalog := services.NewCatalogService(db)
	clientes, err := catalog.Clientes(ctx)
	if err != nil {
		return err
	}
	produtos, err := catalog.Produtos(ctx, true)
	if err != nil {
		return err
	}
	if len(clientes) == 0 || len(produtos) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	svc := services.NewPedidoService(db, cache.NewMemory(), nil)
	repo := repositories.NewPedidoRepository(db)
	now := time.Now()

	for i := 0; i < seedPedidos; i++ {
		cliente := clientes[rand.IntN(len(clientes))]
		in := services.NovoPedido{
			ClienteID:      &cliente.ID,
			FormaPagamento: string(models.FormasPagamento[rand.IntN(len(models.FormasPagamento))]),
		}
		if obs := seedObservacoes[rand.IntN(len(seedObservacoes))]; obs != "" {
			in.Observacoes = str(obs)
		}

		total := decimal.Zero
		for range 1 + rand.IntN(4) {
			p := produtos[rand.IntN(len(produtos))]
			qty := 1 + rand.IntN(3)
			in.Itens = append(in.Itens, services.ItemInput{ProdutoID: p.ID, Quantidade: qty})
			total = total.Add(models.LineSubtotal(qty, p.Preco))
		}
		if in.FormaPagamento == string(models.PagamentoDinheiro) {
			troco := trocoPara(total)
			in.TrocoPara = &troco
		}

		det, err := svc.Create(ctx, in)
		if err != nil {
			return err
		}

		at := now.Add(-time.Duration(rand.IntN(seedDays*24*60)) * time.Minute)
		if err := repo.SetCreatedAt(ctx, det.ID, at); err != nil {
			return err
		}
		for _, next := range seedPath() {
			if _, err := svc.UpdateStatus(ctx, det.ID, string(next)); err != nil {
				return err
			}
		}
	}
	return nil
}

// trocoPara rounds total up to the next ten and adds ten more.
func trocoPara(total decimal.Decimal) decimal.Decimal {
	ten := decimal.NewFromInt(10)
	return total.Div(ten).Ceil().Mul(ten).Add(ten)
}

// seedPath picks a final status and returns the transitions reaching it.
func seedPath() []models.Status {
	paths := [][]models.Status{
		nil,
		{models.StatusPreparando},
		{models.StatusPreparando, models.StatusSaiuEntrega},
		{models.StatusPreparando, models.StatusSaiuEntrega, models.StatusEntregue},
		{models.StatusPreparando, models.StatusSaiuEntrega, models.StatusEntregue},
		{models.StatusCancelado},
	}
	return paths[rand.IntN(len(paths))]
}
