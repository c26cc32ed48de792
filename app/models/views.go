package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PedidoResumo is one row of the order list: the order joined with its
// customer's name and phone.
type PedidoResumo struct {
	ID              string              `json:"id"`
	NumeroPedido    int64               `json:"numero_pedido"`
	Total           decimal.Decimal     `json:"total"`
	Status          Status              `json:"status"`
	EnderecoEntrega *string             `json:"endereco_entrega"`
	FormaPagamento  FormaPagamento      `json:"forma_pagamento"`
	TrocoPara       decimal.NullDecimal `json:"troco_para"`
	Observacoes     *string             `json:"observacoes"`
	CreatedAt       time.Time           `json:"created_at"`
	ClienteID       *string             `json:"cliente_id"`
	ClienteNome     *string             `json:"cliente_nome"`
	ClienteTelefone *string             `json:"cliente_telefone"`
	Pago            bool                `json:"pago" gorm:"-"`
}

// PedidoDetalhe is the full order with customer contact and line items.
type PedidoDetalhe struct {
	Pedido
	ClienteNome     *string `json:"cliente_nome"`
	ClienteTelefone *string `json:"cliente_telefone"`
	ClienteEmail    *string `json:"cliente_email"`
	Pago            bool    `json:"pago" gorm:"-"`
}
