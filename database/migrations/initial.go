package migrations

import (
	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/pkg/migration"
	"github.com/multidelivery/painel/pkg/queue"
)

func init() {
	migration.Register("20260101000000_create_users_table", tables(&models.User{}))
	migration.Register("20260101000001_create_sessions_table", tables(&models.Session{}))
	migration.Register("20260101000002_create_catalog_tables", tables(&models.Cliente{}, &models.Produto{}))
	migration.Register("20260101000003_create_pedidos_tables", tables(&models.Pedido{}, &models.PedidoItem{}))
	migration.Register("20260101000004_create_failed_jobs_table", tables(&queue.FailedJobRecord{}))
}

// Tables lists every table the migrations create, in creation order.
func Tables() []string {
	return []string{"users", "sessions", "clientes", "produtos", "pedidos", "pedido_itens", "failed_jobs"}
}

// tableMigration creates its models on Up and drops them in reverse order
// on Down.
type tableMigration struct {
	models []interface{}
}

func tables(models ...interface{}) migration.Migration {
	return tableMigration{models: models}
}

func (m tableMigration) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.models...)
}

func (m tableMigration) Down(db *gorm.DB) error {
	for i := len(m.models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(m.models[i]); err != nil {
			return err
		}
	}
	return nil
}
