package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
)

const resumoColumns = `p.id, p.numero_pedido, p.total, p.status, p.endereco_entrega,
	p.forma_pagamento, p.troco_para, p.observacoes, p.created_at,
	p.cliente_id, c.nome AS cliente_nome, c.telefone AS cliente_telefone`

// PedidoRepository handles orders and their line items.
type PedidoRepository struct {
	db *gorm.DB
}

func NewPedidoRepository(db *gorm.DB) *PedidoRepository {
	return &PedidoRepository{db: db}
}

// Transaction runs fn with a repository bound to a single transaction.
func (r *PedidoRepository) Transaction(ctx context.Context, fn func(tx *PedidoRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PedidoRepository{db: tx})
	})
}

// DB exposes the underlying handle so other repositories can join a transaction.
func (r *PedidoRepository) DB() *gorm.DB { return r.db }

func (r *PedidoRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("pedidos AS p").
		Select(resumoColumns).
		Joins("LEFT JOIN clientes AS c ON c.id = p.cliente_id")
}

// List returns every order newest first, optionally restricted to one status.
func (r *PedidoRepository) List(ctx context.Context, status models.Status) ([]models.PedidoResumo, error) {
	q := r.joined(ctx)
	if status != "" {
		q = q.Where("p.status = ?", status)
	}

	var rows []models.PedidoResumo
	if err := q.Order("p.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return withPago(rows), nil
}

// Since returns orders with numero_pedido greater than cursor, oldest first.
func (r *PedidoRepository) Since(ctx context.Context, cursor int64, limit int) ([]models.PedidoResumo, error) {
	var rows []models.PedidoResumo
	err := r.joined(ctx).
		Where("p.numero_pedido > ?", cursor).
		Order("p.numero_pedido ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return withPago(rows), nil
}

func withPago(rows []models.PedidoResumo) []models.PedidoResumo {
	if rows == nil {
		return []models.PedidoResumo{}
	}
	for i := range rows {
		rows[i].Pago = models.IsPaid(rows[i].Status, rows[i].FormaPagamento)
	}
	return rows
}

func (r *PedidoRepository) FindByID(ctx context.Context, id string) (models.Pedido, error) {
	var p models.Pedido
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return p, notFound(err)
}

// FindDetail loads the order, its customer's contact fields and its line items.
func (r *PedidoRepository) FindDetail(ctx context.Context, id string) (models.PedidoDetalhe, error) {
	var det models.PedidoDetalhe

	p, err := r.FindByID(ctx, id)
	if err != nil {
		return det, err
	}
	det.Pedido = p

	if err := r.db.WithContext(ctx).Where("pedido_id = ?", id).Order("created_at").Find(&det.Itens).Error; err != nil {
		return det, err
	}
	if det.Itens == nil {
		det.Itens = []models.PedidoItem{}
	}

	if p.ClienteID != nil {
		var c models.Cliente
		err := r.db.WithContext(ctx).Where("id = ?", *p.ClienteID).First(&c).Error
		switch {
		case err == nil:
			det.ClienteNome = &c.Nome
			det.ClienteTelefone = c.Telefone
			det.ClienteEmail = c.Email
		case notFound(err) != ErrNotFound:
			return det, err
		}
	}

	det.Pago = p.Pago()
	return det, nil
}

// NextNumero returns MAX(numero_pedido)+1. Call inside the creating transaction.
func (r *PedidoRepository) NextNumero(ctx context.Context) (int64, error) {
	var max struct{ Max int64 }
	err := r.db.WithContext(ctx).Model(&models.Pedido{}).
		Select("COALESCE(MAX(numero_pedido), 0) AS max").
		Scan(&max).Error
	return max.Max + 1, err
}

// Insert stores the order together with its line items.
func (r *PedidoRepository) Insert(ctx context.Context, p *models.Pedido) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// UpdateStatusFrom moves the order from one status to another only when it is
// still in from. It reports false when the row changed underneath.
func (r *PedidoRepository) UpdateStatusFrom(ctx context.Context, id string, from, to models.Status, atendido bool) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{"status": to, "updated_at": now}
	if atendido {
		updates["atendido_em"] = now
	}

	res := r.db.WithContext(ctx).Model(&models.Pedido{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// NextUnhandledPending returns the oldest pending order nobody has accepted or rejected yet.
func (r *PedidoRepository) NextUnhandledPending(ctx context.Context) (models.Pedido, error) {
	var p models.Pedido
	err := r.db.WithContext(ctx).
		Where("status = ? AND atendido_em IS NULL", models.StatusPendente).
		Order("numero_pedido ASC").
		First(&p).Error
	return p, notFound(err)
}

// CountByStatus counts all orders per status.
func (r *PedidoRepository) CountByStatus(ctx context.Context) (map[models.Status]int64, error) {
	var rows []struct {
		Status models.Status
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Pedido{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[models.Status]int64, len(models.Statuses))
	for _, s := range models.Statuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// CreatedBetween returns orders created in [from, to).
func (r *PedidoRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]models.Pedido, error) {
	var out []models.Pedido
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Find(&out).Error
	return out, err
}

// FirstByNumero returns up to limit orders with the lowest numbers.
func (r *PedidoRepository) FirstByNumero(ctx context.Context, limit int) ([]models.Pedido, error) {
	var out []models.Pedido
	err := r.db.WithContext(ctx).Order("numero_pedido ASC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *PedidoRepository) SetCreatedAt(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Pedido{}).
		Where("id = ?", id).
		UpdateColumn("created_at", at).Error
}
