package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
)

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate record")

func duplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return ErrDuplicate
	}
	return err
}

type ClienteRepository struct {
	db *gorm.DB
}

func NewClienteRepository(db *gorm.DB) *ClienteRepository {
	return &ClienteRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *ClienteRepository) WithTx(tx *gorm.DB) *ClienteRepository {
	return &ClienteRepository{db: tx}
}

func (r *ClienteRepository) List(ctx context.Context) ([]models.Cliente, error) {
	out := []models.Cliente{}
	err := r.db.WithContext(ctx).Order("nome ASC").Find(&out).Error
	return out, err
}

func (r *ClienteRepository) FindByID(ctx context.Context, id string) (models.Cliente, error) {
	var c models.Cliente
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return c, notFound(err)
}

func (r *ClienteRepository) Create(ctx context.Context, c *models.Cliente) error {
	return duplicate(r.db.WithContext(ctx).Create(c).Error)
}

type ProdutoRepository struct {
	db *gorm.DB
}

func NewProdutoRepository(db *gorm.DB) *ProdutoRepository {
	return &ProdutoRepository{db: db}
}

func (r *ProdutoRepository) WithTx(tx *gorm.DB) *ProdutoRepository {
	return &ProdutoRepository{db: tx}
}

// List returns products by name; ativos restricts the result to active ones.
func (r *ProdutoRepository) List(ctx context.Context, ativos bool) ([]models.Produto, error) {
	q := r.db.WithContext(ctx).Order("nome ASC")
	if ativos {
		q = q.Where("ativo = ?", true)
	}
	out := []models.Produto{}
	err := q.Find(&out).Error
	return out, err
}

// Create inserts p. gorm swaps a false Ativo for the column default on
// insert, so an inactive product is cleared again in the same transaction.
func (r *ProdutoRepository) Create(ctx context.Context, p *models.Produto) error {
	ativo := p.Ativo
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if ativo {
			return nil
		}
		return tx.Model(p).UpdateColumn("ativo", false).Error
	})
}

// FindByIDs returns the products found, keyed by id. Missing ids are absent.
func (r *ProdutoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Produto, error) {
	var found []models.Produto
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	out := make(map[string]models.Produto, len(found))
	for _, p := range found {
		out[p.ID] = p
	}
	return out, nil
}
