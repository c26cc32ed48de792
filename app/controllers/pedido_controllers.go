package controllers

import (
	"net/http"

	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/ctx"
)

type PedidoController struct {
	service *services.PedidoService

	// Locate builds the URL of one order for the Location header of 201
	// replies. Nil leaves the header out.
	Locate func(id string) (string, error)
}

func NewPedidoController(service *services.PedidoService) *PedidoController {
	return &PedidoController{service: service}
}

// Index handles GET /api/pedidos?status=&q=.
func (p *PedidoController) Index(c *ctx.Context) {
	rows, err := p.service.List(c.Context(), services.ListFilter{
		Status: c.Query("status"),
		Q:      c.Query("q"),
	})
	if err != nil {
		fail(c, "pedidos: list", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (p *PedidoController) Show(c *ctx.Context) {
	det, err := p.service.Get(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, "pedidos: show", err)
		return
	}
	c.JSON(http.StatusOK, det)
}

// Store handles POST /api/pedidos.
func (p *PedidoController) Store(c *ctx.Context) {
	var in services.NovoPedido
	if !c.BindJSON(&in) {
		return
	}
	det, err := p.service.Create(c.Context(), in)
	if err != nil {
		fail(c, "pedidos: create", err)
		return
	}
	if p.Locate != nil {
		if loc, err := p.Locate(det.ID); err == nil {
			c.W.Header().Set("Location", loc)
		}
	}
	c.Created(det)
}

type statusInput struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/pedidos/{id}/status.
func (p *PedidoController) UpdateStatus(c *ctx.Context) {
	var in statusInput
	if !c.BindJSON(&in) {
		return
	}
	if _, err := p.service.UpdateStatus(c.Context(), c.Param("id"), in.Status); err != nil {
		fail(c, "pedidos: update status", err)
		return
	}
	c.Message(http.StatusOK, "Status atualizado")
}

// Alerta handles GET /api/pedidos/alerta: the next unhandled pending order,
// or 204 when there is none.
func (p *PedidoController) Alerta(c *ctx.Context) {
	det, ok, err := p.service.Alerta(c.Context())
	if err != nil {
		fail(c, "pedidos: alerta", err)
		return
	}
	if !ok {
		c.NoContent()
		return
	}
	c.JSON(http.StatusOK, det)
}

func (p *PedidoController) Aceitar(c *ctx.Context) {
	if _, err := p.service.Aceitar(c.Context(), c.Param("id")); err != nil {
		fail(c, "pedidos: aceitar", err)
		return
	}
	c.Message(http.StatusOK, "Pedido aceito")
}

func (p *PedidoController) Recusar(c *ctx.Context) {
	if _, err := p.service.Recusar(c.Context(), c.Param("id")); err != nil {
		fail(c, "pedidos: recusar", err)
		return
	}
	c.Message(http.StatusOK, "Pedido recusado")
}

func (p *PedidoController) Resumo(c *ctx.Context) {
	r, err := p.service.Resumo(c.Context())
	if err != nil {
		fail(c, "pedidos: resumo", err)
		return
	}
	c.JSON(http.StatusOK, r)
}
