package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cliente is a delivery customer.
type Cliente struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Nome      string    `gorm:"size:255;not null;index" json:"nome"`
	Email     *string   `gorm:"size:255;uniqueIndex" json:"email"`
	Telefone  *string   `gorm:"size:20" json:"telefone"`
	Endereco  *string   `gorm:"type:text" json:"endereco"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Cliente) TableName() string { return "clientes" }

func (c *Cliente) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Produto is a sellable catalog item.
type Produto struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Nome      string          `gorm:"size:255;not null;index" json:"nome"`
	Descricao *string         `gorm:"type:text" json:"descricao"`
	Preco     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"preco"`
	Estoque   int             `gorm:"not null;default:0" json:"estoque"`
	Ativo     bool            `gorm:"not null;default:true" json:"ativo"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Produto) TableName() string { return "produtos" }

func (p *Produto) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
