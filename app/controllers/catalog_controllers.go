package controllers

import (
	"net/http"

	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/ctx"
)

type CatalogController struct {
	service *services.CatalogService
}

func NewCatalogController(service *services.CatalogService) *CatalogController {
	return &CatalogController{service: service}
}

func (k *CatalogController) Clientes(c *ctx.Context) {
	list, err := k.service.Clientes(c.Context())
	if err != nil {
		fail(c, "clientes: list", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (k *CatalogController) StoreCliente(c *ctx.Context) {
	var in services.NovoCliente
	if !c.BindJSON(&in) {
		return
	}
	cli, err := k.service.CreateCliente(c.Context(), in)
	if err != nil {
		fail(c, "clientes: create", err)
		return
	}
	c.Created(cli)
}

// Produtos handles GET /api/produtos; ?ativos=1 hides inactive products.
func (k *CatalogController) Produtos(c *ctx.Context) {
	list, err := k.service.Produtos(c.Context(), c.QueryFlag("ativos"))
	if err != nil {
		fail(c, "produtos: list", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (k *CatalogController) StoreProduto(c *ctx.Context) {
	var in services.NovoProduto
	if !c.BindJSON(&in) {
		return
	}
	p, err := k.service.CreateProduto(c.Context(), in)
	if err != nil {
		fail(c, "produtos: create", err)
		return
	}
	c.Created(p)
}
