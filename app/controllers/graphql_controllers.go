package controllers

import (
	"errors"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/ctx"
	gql "github.com/multidelivery/painel/pkg/graphql"
	"github.com/multidelivery/painel/pkg/logger"
)

// Money values travel as strings with two decimals.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

func nullMoney(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return money(d.Decimal)
}

func optional(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

var itemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PedidoItem",
	Fields: graphql.Fields{
		"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"produto_id":     &graphql.Field{Type: graphql.ID},
		"nome_produto":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"quantidade":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"preco_unitario": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"subtotal":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var pedidoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Pedido",
	Fields: graphql.Fields{
		"id":               &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"numero_pedido":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"status":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"total":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"forma_pagamento":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"troco_para":       &graphql.Field{Type: graphql.String},
		"pago":             &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"endereco_entrega": &graphql.Field{Type: graphql.String},
		"observacoes":      &graphql.Field{Type: graphql.String},
		"cliente_nome":     &graphql.Field{Type: graphql.String},
		"cliente_telefone": &graphql.Field{Type: graphql.String},
		"created_at":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"itens":            &graphql.Field{Type: graphql.NewList(itemType)},
	},
})

var statusCountType = graphql.NewObject(graphql.ObjectConfig{
	Name: "StatusCount",
	Fields: graphql.Fields{
		"status": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"total":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var resumoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Resumo",
	Fields: graphql.Fields{
		"data":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"total_pedidos": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_vendido": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"por_status":    &graphql.Field{Type: graphql.NewList(statusCountType)},
	},
})

func resumoRow(p models.PedidoResumo) map[string]interface{} {
	return map[string]interface{}{
		"id":               p.ID,
		"numero_pedido":    int(p.NumeroPedido),
		"status":           string(p.Status),
		"total":            money(p.Total),
		"forma_pagamento":  string(p.FormaPagamento),
		"troco_para":       nullMoney(p.TrocoPara),
		"pago":             p.Pago,
		"endereco_entrega": optional(p.EnderecoEntrega),
		"observacoes":      optional(p.Observacoes),
		"cliente_nome":     optional(p.ClienteNome),
		"cliente_telefone": optional(p.ClienteTelefone),
		"created_at":       p.CreatedAt.Format(time.RFC3339),
	}
}

func detalheRow(d models.PedidoDetalhe) map[string]interface{} {
	itens := make([]map[string]interface{}, 0, len(d.Itens))
	for _, it := range d.Itens {
		itens = append(itens, map[string]interface{}{
			"id":             it.ID,
			"produto_id":     optional(it.ProdutoID),
			"nome_produto":   it.NomeProduto,
			"quantidade":     it.Quantidade,
			"preco_unitario": money(it.PrecoUnitario),
			"subtotal":       money(it.Subtotal),
		})
	}
	return map[string]interface{}{
		"id":               d.ID,
		"numero_pedido":    int(d.NumeroPedido),
		"status":           string(d.Status),
		"total":            money(d.Total),
		"forma_pagamento":  string(d.FormaPagamento),
		"troco_para":       nullMoney(d.TrocoPara),
		"pago":             d.Pago,
		"endereco_entrega": optional(d.EnderecoEntrega),
		"observacoes":      optional(d.Observacoes),
		"cliente_nome":     optional(d.ClienteNome),
		"cliente_telefone": optional(d.ClienteTelefone),
		"created_at":       d.CreatedAt.Format(time.RFC3339),
		"itens":            itens,
	}
}

// publicError keeps internal failures out of the GraphQL "errors" member.
func publicError(p graphql.ResolveParams, err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	logger.WithCtx(p.Context).Error("graphql: resolve", "field", p.Info.FieldName, "error", err)
	return errors.New(ctx.MsgInternal)
}

// NewPedidoSchema exposes pedidos(status, q), pedido(id) and resumo.
func NewPedidoSchema(pedidos *services.PedidoService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pedidos": &graphql.Field{
				Type: graphql.NewList(pedidoType),
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String},
					"q":      &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					status, _ := p.Args["status"].(string)
					q, _ := p.Args["q"].(string)
					rows, err := pedidos.List(p.Context, services.ListFilter{Status: status, Q: q})
					if err != nil {
						return nil, publicError(p, err)
					}
					out := make([]map[string]interface{}, 0, len(rows))
					for _, r := range rows {
						out = append(out, resumoRow(r))
					}
					return out, nil
				},
			},
			"pedido": &graphql.Field{
				Type: pedidoType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					det, err := pedidos.Get(p.Context, id)
					if errors.Is(err, services.ErrPedidoNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, publicError(p, err)
					}
					return detalheRow(det), nil
				},
			},
			"resumo": &graphql.Field{
				Type: resumoType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, err := pedidos.Resumo(p.Context)
					if err != nil {
						return nil, publicError(p, err)
					}
					counts := make([]map[string]interface{}, 0, len(models.Statuses))
					for _, s := range models.Statuses {
						counts = append(counts, map[string]interface{}{"status": string(s), "total": int(r.PorStatus[s])})
					}
					return map[string]interface{}{
						"data":          r.Data,
						"total_pedidos": r.TotalPedidos,
						"total_vendido": money(r.TotalVendido),
						"por_status":    counts,
					}, nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}
