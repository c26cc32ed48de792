package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/app/repositories"
	"github.com/multidelivery/painel/pkg/database"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func seedPedido(t *testing.T, db *gorm.DB, numero int64, status models.Status, clienteID *string) models.Pedido {
	t.Helper()
	p := models.Pedido{
		NumeroPedido:   numero,
		ClienteID:      clienteID,
		Total:          decimal.RequireFromString("45.90"),
		Status:         status,
		FormaPagamento: models.PagamentoDinheiro,
		Itens: []models.PedidoItem{{
			NomeProduto:   "Pizza Margherita",
			Quantidade:    1,
			PrecoUnitario: decimal.RequireFromString("45.90"),
		}},
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestSessionLifecycle(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	users := repositories.NewUserRepository(db)
	sessions := repositories.NewSessionRepository(db)

	u := models.User{Email: "op@painel.local", Name: "Operador", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, &u))
	assert.Equal(t, models.RoleUser, u.Role)

	live := models.Session{UserID: u.ID, Token: "live", ExpiresAt: time.Now().Add(time.Hour)}
	old := models.Session{UserID: u.ID, Token: "old", ExpiresAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, sessions.Create(ctx, &live))
	require.NoError(t, sessions.Create(ctx, &old))

	got, err := sessions.FindByToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	n, err := sessions.DeleteExpiredBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = sessions.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, sessions.DeleteByToken(ctx, "live"))
	require.NoError(t, sessions.DeleteByToken(ctx, "live"))
}

func TestUserUpsert(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(db)

	created, err := users.Upsert(ctx, &models.User{Email: "admin@painel.local", Name: "A", PasswordHash: "h1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = users.Upsert(ctx, &models.User{Email: "admin@painel.local", Name: "B", PasswordHash: "h2", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, created)

	u, err := users.FindByEmail(ctx, "admin@painel.local")
	require.NoError(t, err)
	assert.Equal(t, "B", u.Name)
	assert.Equal(t, "h2", u.PasswordHash)

	created, err = users.Upsert(ctx, &models.User{Email: "Admin@Painel.LOCAL", Name: "C", PasswordHash: "h3", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, created)

	u, err = users.FindByEmail(ctx, " ADMIN@painel.local")
	require.NoError(t, err)
	assert.Equal(t, "admin@painel.local", u.Email)
	assert.Equal(t, "C", u.Name)
}

func TestPedidoListJoinsCliente(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	c := models.Cliente{Nome: "João Silva", Telefone: strPtr("(11) 99999-0001")}
	require.NoError(t, db.Create(&c).Error)

	seedPedido(t, db, 1, models.StatusPendente, &c.ID)
	seedPedido(t, db, 2, models.StatusEntregue, nil)

	repo := repositories.NewPedidoRepository(db)
	rows, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byNumero := map[int64]models.PedidoResumo{}
	for _, r := range rows {
		byNumero[r.NumeroPedido] = r
	}
	require.NotNil(t, byNumero[1].ClienteNome)
	assert.Equal(t, "João Silva", *byNumero[1].ClienteNome)
	assert.False(t, byNumero[1].Pago)
	assert.Nil(t, byNumero[2].ClienteNome)
	assert.True(t, byNumero[2].Pago)

	rows, err = repo.List(ctx, models.StatusEntregue)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].NumeroPedido)
}

func TestPedidoListEmptyIsNotNil(t *testing.T) {
	rows, err := repositories.NewPedidoRepository(openDB(t)).List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestPedidoFindDetail(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := repositories.NewPedidoRepository(db)

	c := models.Cliente{Nome: "Maria Santos", Email: strPtr("maria@email.com")}
	require.NoError(t, db.Create(&c).Error)
	p := seedPedido(t, db, 1, models.StatusPendente, &c.ID)

	det, err := repo.FindDetail(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, det.Itens, 1)
	assert.Equal(t, "45.9", det.Itens[0].Subtotal.String())
	assert.Equal(t, "maria@email.com", *det.ClienteEmail)

	_, err = repo.FindDetail(ctx, "nope")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPedidoUpdateStatusFrom(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := repositories.NewPedidoRepository(db)
	p := seedPedido(t, db, 1, models.StatusPendente, nil)

	ok, err := repo.UpdateStatusFrom(ctx, p.ID, models.StatusPendente, models.StatusPreparando, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatusFrom(ctx, p.ID, models.StatusPendente, models.StatusCancelado, false)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparando, got.Status)
	assert.NotNil(t, got.AtendidoEm)
}

func TestNextUnhandledPendingIsOldest(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := repositories.NewPedidoRepository(db)

	_, err := repo.NextUnhandledPending(ctx)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	first := seedPedido(t, db, 1, models.StatusPendente, nil)
	seedPedido(t, db, 2, models.StatusPendente, nil)

	got, err := repo.NextUnhandledPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = repo.UpdateStatusFrom(ctx, first.ID, models.StatusPendente, models.StatusPendente, true)
	require.NoError(t, err)

	got, err = repo.NextUnhandledPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.NumeroPedido)
}

func TestNextNumeroAndCounts(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := repositories.NewPedidoRepository(db)

	n, err := repo.NextNumero(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	seedPedido(t, db, 7, models.StatusCancelado, nil)
	n, err = repo.NextNumero(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.StatusCancelado])
	assert.Equal(t, int64(0), counts[models.StatusPendente])
	assert.Len(t, counts, len(models.Statuses))
}

func TestSinceOrdersByNumero(t *testing.T) {
	db := openDB(t)
	repo := repositories.NewPedidoRepository(db)
	for i := int64(1); i <= 4; i++ {
		seedPedido(t, db, i, models.StatusPendente, nil)
	}

	rows, err := repo.Since(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].NumeroPedido)
	assert.Equal(t, int64(4), rows[1].NumeroPedido)
}

func TestClienteDuplicateEmail(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := repositories.NewClienteRepository(db)

	require.NoError(t, repo.Create(ctx, &models.Cliente{Nome: "Ana", Email: strPtr("ana@email.com")}))
	err := repo.Create(ctx, &models.Cliente{Nome: "Ana 2", Email: strPtr("ana@email.com")})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func TestProdutoListAndFindByIDs(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := repositories.NewProdutoRepository(db)

	on := models.Produto{Nome: "Água Mineral", Preco: decimal.RequireFromString("4.00"), Ativo: true}
	off := models.Produto{Nome: "Suco", Preco: decimal.RequireFromString("8.00")}
	require.NoError(t, repo.Create(ctx, &on))
	require.NoError(t, repo.Create(ctx, &off))
	assert.False(t, off.Ativo)

	var stored models.Produto
	require.NoError(t, db.First(&stored, "id = ?", off.ID).Error)
	assert.False(t, stored.Ativo)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ativos, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, ativos, 1)
	assert.Equal(t, on.ID, ativos[0].ID)

	found, err := repo.FindByIDs(ctx, []string{on.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, on.ID)
}
