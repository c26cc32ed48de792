package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/events"
	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/app/repositories"
	"github.com/multidelivery/painel/pkg/cache"
	"github.com/multidelivery/painel/pkg/collection"
	"github.com/multidelivery/painel/pkg/logger"
)

const resumoTTL = 30 * time.Second

// PedidoService owns the order lifecycle: intake, listing, status changes
// and the new-order alert.
type PedidoService struct {
	pedidos  *repositories.PedidoRepository
	clientes *repositories.ClienteRepository
	produtos *repositories.ProdutoRepository
	cache    cache.Store
	events   events.Dispatcher
	now      func() time.Time
}

func NewPedidoService(db *gorm.DB, store cache.Store, ev events.Dispatcher) *PedidoService {
	return &PedidoService{
		pedidos:  repositories.NewPedidoRepository(db),
		clientes: repositories.NewClienteRepository(db),
		produtos: repositories.NewProdutoRepository(db),
		cache:    store,
		events:   ev,
		now:      time.Now,
	}
}

// ─── Queries ──────────────────────────────────────────────────────────────────

type ListFilter struct {
	Status string
	Q      string
}

// List returns orders newest first. Q matches the order number or the
// customer name, case-insensitively.
func (s *PedidoService) List(ctx context.Context, f ListFilter) ([]models.PedidoResumo, error) {
	var status models.Status
	if f.Status != "" {
		st, err := models.ParseStatus(f.Status)
		if err != nil {
			return nil, ErrStatusInvalido
		}
		status = st
	}

	rows, err := s.pedidos.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list pedidos: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(f.Q))
	if q == "" {
		return rows, nil
	}
	return collection.Filter(rows, func(p models.PedidoResumo) bool {
		if strings.Contains(strconv.FormatInt(p.NumeroPedido, 10), q) {
			return true
		}
		return p.ClienteNome != nil && strings.Contains(strings.ToLower(*p.ClienteNome), q)
	}), nil
}

func (s *PedidoService) Get(ctx context.Context, id string) (models.PedidoDetalhe, error) {
	det, err := s.pedidos.FindDetail(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return det, ErrPedidoNotFound
	}
	if err != nil {
		return det, fmt.Errorf("find pedido %s: %w", id, err)
	}
	return det, nil
}

// Since returns up to limit orders numbered after cursor, oldest first.
func (s *PedidoService) Since(ctx context.Context, cursor int64, limit int) ([]models.PedidoResumo, error) {
	return s.pedidos.Since(ctx, cursor, limit)
}

// Alerta returns the oldest pending order nobody has accepted or rejected.
// ok is false when there is none.
func (s *PedidoService) Alerta(ctx context.Context) (det models.PedidoDetalhe, ok bool, err error) {
	p, err := s.pedidos.NextUnhandledPending(ctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return det, false, nil
	}
	if err != nil {
		return det, false, fmt.Errorf("next alerta: %w", err)
	}
	det, err = s.Get(ctx, p.ID)
	if errors.Is(err, ErrPedidoNotFound) {
		return det, false, nil
	}
	return det, err == nil, err
}

// PendingCount counts orders still in pendente.
func (s *PedidoService) PendingCount(ctx context.Context) (int64, error) {
	counts, err := s.pedidos.CountByStatus(ctx)
	if err != nil {
		return 0, err
	}
	return counts[models.StatusPendente], nil
}

type Resumo struct {
	Data         string                  `json:"data"`
	TotalPedidos int                     `json:"total_pedidos"`
	TotalVendido decimal.Decimal         `json:"total_vendido"`
	PorStatus    map[models.Status]int64 `json:"por_status"`
}

func resumoKey(day string) string { return "pedidos:resumo:" + day }

// Resumo summarises the current local day: every order placed today and the
// revenue of those not cancelled. PorStatus counts all orders.
func (s *PedidoService) Resumo(ctx context.Context) (Resumo, error) {
	now := s.now()
	day := now.Format("2006-01-02")

	var r Resumo
	if s.cache != nil && s.cache.Get(ctx, resumoKey(day), &r) {
		return r, nil
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	hoje, err := s.pedidos.CreatedBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return r, fmt.Errorf("pedidos de hoje: %w", err)
	}
	counts, err := s.pedidos.CountByStatus(ctx)
	if err != nil {
		return r, fmt.Errorf("count by status: %w", err)
	}

	r = Resumo{
		Data:         day,
		TotalPedidos: len(hoje),
		TotalVendido: collection.Reduce(hoje, decimal.Zero, func(acc decimal.Decimal, p models.Pedido) decimal.Decimal {
			if p.Status == models.StatusCancelado {
				return acc
			}
			return acc.Add(p.Total)
		}),
		PorStatus: counts,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, resumoKey(day), r, resumoTTL); err != nil {
			logger.WithCtx(ctx).Warn("pedidos: cache resumo", "error", err)
		}
	}
	return r, nil
}

// InvalidateResumo drops today's cached summary.
func (s *PedidoService) InvalidateResumo(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, resumoKey(s.now().Format("2006-01-02"))); err != nil {
		logger.Warn("pedidos: invalidate resumo", "error", err)
	}
}

// ─── Status ───────────────────────────────────────────────────────────────────

// UpdateStatus moves the order to raw if the lifecycle allows it. Asking for
// the current status succeeds without touching the row.
func (s *PedidoService) UpdateStatus(ctx context.Context, id, raw string) (models.Pedido, error) {
	next, err := models.ParseStatus(raw)
	if err != nil {
		return models.Pedido{}, ErrStatusInvalido
	}
	return s.transition(ctx, id, next, false)
}

// Aceitar resolves a pending order's alert and starts preparing it.
func (s *PedidoService) Aceitar(ctx context.Context, id string) (models.Pedido, error) {
	return s.transition(ctx, id, models.StatusPreparando, true)
}

// Recusar resolves a pending order's alert by cancelling it.
func (s *PedidoService) Recusar(ctx context.Context, id string) (models.Pedido, error) {
	return s.transition(ctx, id, models.StatusCancelado, true)
}

// transition applies from→next with a conditional update on the current
// status, so two operators racing on the same order cannot both win.
// fromAlert additionally requires the order to be pendente and stamps
// atendido_em.
func (s *PedidoService) transition(ctx context.Context, id string, next models.Status, fromAlert bool) (models.Pedido, error) {
	var (
		p       models.Pedido
		from    models.Status
		changed bool
	)

	err := s.pedidos.Transaction(ctx, func(tx *repositories.PedidoRepository) error {
		cur, err := tx.FindByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPedidoNotFound
		}
		if err != nil {
			return err
		}
		p, from = cur, cur.Status

		if fromAlert && from != models.StatusPendente {
			return ErrTransicao
		}
		if err := from.Transition(next); err != nil {
			return ErrTransicao
		}
		if from == next {
			return nil
		}

		ok, err := tx.UpdateStatusFrom(ctx, id, from, next, fromAlert)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTransicao
		}
		p.Status = next
		p.UpdatedAt = s.now()
		if fromAlert {
			at := p.UpdatedAt
			p.AtendidoEm = &at
		}
		changed = true
		return nil
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return models.Pedido{}, err
		}
		return models.Pedido{}, fmt.Errorf("update status %s: %w", id, err)
	}

	if changed {
		logger.WithCtx(ctx).Info("pedidos: status changed",
			"pedido_id", id, "numero_pedido", p.NumeroPedido, "from", from, "to", next)
		s.fire(events.StatusAlterado(p, from))
	}
	return p, nil
}

func (s *PedidoService) fire(ev events.PedidoEvent) {
	if s.events != nil {
		s.events.FireAsync(ev.Evento, ev)
	}
}

// ─── Intake ───────────────────────────────────────────────────────────────────

type ItemInput struct {
	ProdutoID  string `json:"produto_id" validate:"required,uuid"`
	Quantidade int    `json:"quantidade" validate:"required,gte=1,lte=999"`
}

type NovoPedido struct {
	ClienteID       *string          `json:"cliente_id"       validate:"nullable,uuid"`
	EnderecoEntrega *string          `json:"endereco_entrega" validate:"nullable,max=500"`
	FormaPagamento  string           `json:"forma_pagamento"  validate:"nullable,in=dinheiro,cartao_credito,cartao_debito,pix"`
	TrocoPara       *decimal.Decimal `json:"troco_para"       validate:"nullable,gt=0"`
	Observacoes     *string          `json:"observacoes"      validate:"nullable,max=1000"`
	Itens           []ItemInput      `json:"itens"            validate:"required,min=1,dive"`
}

// Create places an order. Prices and names are snapshotted from the catalog,
// the total is the sum of the line subtotals, and the order plus its items
// are written in one transaction.
func (s *PedidoService) Create(ctx context.Context, in NovoPedido) (models.PedidoDetalhe, error) {
	forma := models.PagamentoDinheiro
	if in.FormaPagamento != "" {
		forma = models.FormaPagamento(in.FormaPagamento)
	}
	if !forma.Valid() {
		return models.PedidoDetalhe{}, ErrFormaPagamento
	}
	if len(in.Itens) == 0 {
		return models.PedidoDetalhe{}, ErrProdutoInvalido
	}

	var det models.PedidoDetalhe
	err := s.pedidos.Transaction(ctx, func(tx *repositories.PedidoRepository) error {
		ids := collection.Unique(collection.Map(in.Itens, func(i ItemInput) string { return i.ProdutoID }))
		catalogo, err := s.produtos.WithTx(tx.DB()).FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		total := decimal.Zero
		itens := make([]models.PedidoItem, 0, len(in.Itens))
		for _, it := range in.Itens {
			prod, ok := catalogo[it.ProdutoID]
			if !ok || !prod.Ativo || it.Quantidade < 1 {
				return ErrProdutoInvalido
			}
			sub := models.LineSubtotal(it.Quantidade, prod.Preco)
			total = total.Add(sub)
			produtoID := prod.ID
			itens = append(itens, models.PedidoItem{
				ProdutoID:     &produtoID,
				NomeProduto:   prod.Nome,
				Quantidade:    it.Quantidade,
				PrecoUnitario: prod.Preco,
				Subtotal:      sub,
			})
		}

		var troco decimal.NullDecimal
		if in.TrocoPara != nil && !in.TrocoPara.IsZero() {
			if forma != models.PagamentoDinheiro {
				return ErrTrocoForma
			}
			if in.TrocoPara.LessThan(total) {
				return ErrTrocoMenor
			}
			troco = decimal.NewNullDecimal(in.TrocoPara.Round(2))
		}

		endereco := blankToNil(in.EnderecoEntrega)
		var clienteID *string
		if id := blankToNil(in.ClienteID); id != nil {
			c, err := s.clientes.WithTx(tx.DB()).FindByID(ctx, *id)
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrClienteInvalido
			}
			if err != nil {
				return err
			}
			clienteID = &c.ID
			if endereco == nil {
				endereco = c.Endereco
			}
		}

		numero, err := tx.NextNumero(ctx)
		if err != nil {
			return err
		}

		p := models.Pedido{
			NumeroPedido:    numero,
			ClienteID:       clienteID,
			Total:           total,
			Status:          models.StatusPendente,
			EnderecoEntrega: endereco,
			FormaPagamento:  forma,
			TrocoPara:       troco,
			Observacoes:     blankToNil(in.Observacoes),
			Itens:           itens,
		}
		if err := tx.Insert(ctx, &p); err != nil {
			return err
		}

		det, err = tx.FindDetail(ctx, p.ID)
		return err
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return models.PedidoDetalhe{}, err
		}
		return models.PedidoDetalhe{}, fmt.Errorf("create pedido: %w", err)
	}

	logger.WithCtx(ctx).Info("pedidos: created",
		"pedido_id", det.ID, "numero_pedido", det.NumeroPedido, "total", det.Total.StringFixed(2))
	s.fire(events.Criado(det.Pedido))
	return det, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ─── Maintenance ──────────────────────────────────────────────────────────────

// MoverParaHoje moves the n lowest-numbered orders to today, one hour apart
// from 08:00 with a random minute, so the dashboard has data for the day.
func (s *PedidoService) MoverParaHoje(ctx context.Context, n int) ([]models.Pedido, error) {
	list, err := s.pedidos.FirstByNumero(ctx, n)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range list {
		at := time.Date(now.Year(), now.Month(), now.Day(), 8+i, rand.IntN(60), 0, 0, now.Location())
		if err := s.pedidos.SetCreatedAt(ctx, list[i].ID, at); err != nil {
			return nil, fmt.Errorf("move pedido %d: %w", list[i].NumeroPedido, err)
		}
		list[i].CreatedAt = at
	}
	s.InvalidateResumo(ctx)
	return list, nil
}

var csvHeader = []string{
	"numero_pedido", "status", "cliente_nome", "cliente_telefone", "total",
	"forma_pagamento", "troco_para", "pago", "endereco_entrega", "created_at",
}

// ExportCSV writes every order, newest first, and returns the row count.
func (s *PedidoService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.pedidos.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list pedidos: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, p := range rows {
		troco := ""
		if p.TrocoPara.Valid {
			troco = p.TrocoPara.Decimal.StringFixed(2)
		}
		rec := []string{
			strconv.FormatInt(p.NumeroPedido, 10),
			string(p.Status),
			deref(p.ClienteNome),
			deref(p.ClienteTelefone),
			p.Total.StringFixed(2),
			string(p.FormaPagamento),
			troco,
			strconv.FormatBool(p.Pago),
			deref(p.EnderecoEntrega),
			p.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(rows), cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
