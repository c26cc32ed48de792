package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Pedido is a customer order. Line items are owned and cascade on delete;
// the customer reference is unconstrained.
type Pedido struct {
	ID              string              `gorm:"type:varchar(36);primaryKey" json:"id"`
	NumeroPedido    int64               `gorm:"not null;uniqueIndex" json:"numero_pedido"`
	ClienteID       *string             `gorm:"type:varchar(36);index" json:"cliente_id"`
	Total           decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"total"`
	Status          Status              `gorm:"size:50;not null;default:pendente;index" json:"status"`
	EnderecoEntrega *string             `gorm:"type:text" json:"endereco_entrega"`
	FormaPagamento  FormaPagamento      `gorm:"size:50;not null;default:dinheiro" json:"forma_pagamento"`
	TrocoPara       decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"troco_para"`
	Observacoes     *string             `gorm:"type:text" json:"observacoes"`
	AtendidoEm      *time.Time          `gorm:"index" json:"atendido_em"`
	CreatedAt       time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Itens           []PedidoItem        `gorm:"foreignKey:PedidoID;constraint:OnDelete:CASCADE" json:"itens"`
}

func (Pedido) TableName() string { return "pedidos" }

func (p *Pedido) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Status == "" {
		p.Status = StatusPendente
	}
	if p.FormaPagamento == "" {
		p.FormaPagamento = PagamentoDinheiro
	}
	return nil
}

// Pago is the derived settlement flag.
func (p Pedido) Pago() bool { return IsPaid(p.Status, p.FormaPagamento) }

// PedidoItem is an immutable line of a Pedido with name and price snapshots.
type PedidoItem struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	PedidoID      string          `gorm:"type:varchar(36);not null;index" json:"pedido_id"`
	ProdutoID     *string         `gorm:"type:varchar(36);index" json:"produto_id"`
	Produto       *Produto        `gorm:"foreignKey:ProdutoID" json:"-"`
	NomeProduto   string          `gorm:"size:255;not null" json:"nome_produto"`
	Quantidade    int             `gorm:"not null;default:1" json:"quantidade"`
	PrecoUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"preco_unitario"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (PedidoItem) TableName() string { return "pedido_itens" }

func (i *PedidoItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	if i.Subtotal.IsZero() {
		i.Subtotal = LineSubtotal(i.Quantidade, i.PrecoUnitario)
	}
	return nil
}

// LineSubtotal is quantidade × preço, rounded to cents.
func LineSubtotal(quantidade int, preco decimal.Decimal) decimal.Decimal {
	return preco.Mul(decimal.NewFromInt(int64(quantidade))).Round(2)
}
