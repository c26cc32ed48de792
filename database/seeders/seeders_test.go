package seeders

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/pkg/database"
)

func TestTrocoPara(t *testing.T) {
	cases := map[string]string{
		"103.80": "120",
		"40.00":  "50",
		"9.50":   "20",
	}
	for total, want := range cases {
		got := trocoPara(decimal.RequireFromString(total))
		assert.Equal(t, want, got.String(), total)
	}
}

func TestRunAllSeedsDemoData(t *testing.T) {
	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	var out bytes.Buffer
	require.NoError(t, RunAll(context.Background(), db, &out))
	assert.Contains(t, out.String(), "• pedidos … ok")

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 1, count(&models.User{}))
	assert.EqualValues(t, len(demoClientes), count(&models.Cliente{}))
	assert.EqualValues(t, len(demoProdutos), count(&models.Produto{}))
	assert.EqualValues(t, seedPedidos, count(&models.Pedido{}))

	var pedidos []models.Pedido
	require.NoError(t, db.Preload("Itens").Find(&pedidos).Error)
	for _, p := range pedidos {
		assert.True(t, p.Status.Valid())
		assert.NotEmpty(t, p.Itens)
		assert.LessOrEqual(t, len(p.Itens), 4)
		if p.FormaPagamento == models.PagamentoDinheiro {
			require.True(t, p.TrocoPara.Valid)
			assert.True(t, p.TrocoPara.Decimal.GreaterThan(p.Total))
		}
	}

	// A second run leaves the data alone.
	require.NoError(t, RunAll(context.Background(), db, nil))
	assert.EqualValues(t, seedPedidos, count(&models.Pedido{}))
}

func TestRunOnlySelected(t *testing.T) {
	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	require.NoError(t, Run(context.Background(), db, nil, "catalogo"))

	var users, produtos int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Produto{}).Count(&produtos).Error)
	assert.Zero(t, users)
	assert.EqualValues(t, len(demoProdutos), produtos)

	err = Run(context.Background(), db, nil, "clientes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin, catalogo, pedidos")
}
