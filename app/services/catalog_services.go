package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/app/repositories"
)

// CatalogService manages customers and products.
type CatalogService struct {
	clientes *repositories.ClienteRepository
	produtos *repositories.ProdutoRepository
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{
		clientes: repositories.NewClienteRepository(db),
		produtos: repositories.NewProdutoRepository(db),
	}
}

type NovoCliente struct {
	Nome     string  `json:"nome"     validate:"required,max=255"`
	Email    *string `json:"email"    validate:"nullable,email,max=255"`
	Telefone *string `json:"telefone" validate:"nullable,max=20"`
	Endereco *string `json:"endereco" validate:"nullable,max=500"`
}

type NovoProduto struct {
	Nome      string          `json:"nome"      validate:"required,max=255"`
	Descricao *string         `json:"descricao" validate:"nullable,max=1000"`
	Preco     decimal.Decimal `json:"preco"     validate:"required,gt=0"`
	Estoque   int             `json:"estoque"   validate:"gte=0"`
	Ativo     *bool           `json:"ativo"`
}

func (s *CatalogService) Clientes(ctx context.Context) ([]models.Cliente, error) {
	return s.clientes.List(ctx)
}

func (s *CatalogService) CreateCliente(ctx context.Context, in NovoCliente) (models.Cliente, error) {
	c := models.Cliente{
		Nome:     strings.TrimSpace(in.Nome),
		Email:    blankToNil(in.Email),
		Telefone: blankToNil(in.Telefone),
		Endereco: blankToNil(in.Endereco),
	}
	if c.Email != nil {
		e := strings.ToLower(*c.Email)
		c.Email = &e
	}

	err := s.clientes.Create(ctx, &c)
	if errors.Is(err, repositories.ErrDuplicate) {
		return models.Cliente{}, ErrEmailDuplicado
	}
	if err != nil {
		return models.Cliente{}, fmt.Errorf("create cliente: %w", err)
	}
	return c, nil
}

// Produtos lists the catalog; ativos restricts it to products on sale.
func (s *CatalogService) Produtos(ctx context.Context, ativos bool) ([]models.Produto, error) {
	return s.produtos.List(ctx, ativos)
}

// CreateProduto adds a product. It is active unless ativo is false.
func (s *CatalogService) CreateProduto(ctx context.Context, in NovoProduto) (models.Produto, error) {
	ativo := true
	if in.Ativo != nil {
		ativo = *in.Ativo
	}
	p := models.Produto{
		Nome:      strings.TrimSpace(in.Nome),
		Descricao: blankToNil(in.Descricao),
		Preco:     in.Preco.Round(2),
		Estoque:   in.Estoque,
		Ativo:     ativo,
	}
	if err := s.produtos.Create(ctx, &p); err != nil {
		return models.Produto{}, fmt.Errorf("create produto: %w", err)
	}
	return p, nil
}
