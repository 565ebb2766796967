package migrations

import (
	"gorm.io/gorm"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/pkg/migration"
	"github.com/perennia/storefront/pkg/queue"
)

func init() {
	migration.Register("20260301000001_create_users_table", &table{model: &models.User{}, name: "users"})
	migration.Register("20260301000002_create_products_table", &table{model: &models.Product{}, name: "products"})
	migration.Register("20260301000003_create_reviews_table", &table{model: &models.Review{}, name: "reviews"})
	migration.Register("20260301000004_create_orders_table", &table{model: &models.Order{}, name: "orders"})
	migration.Register("20260301000005_create_order_items_table", &table{model: &models.OrderItem{}, name: "order_items"})
	migration.Register("20260301000006_create_payment_transactions_table", &table{model: &models.PaymentTransaction{}, name: "payment_transactions"})
	migration.Register("20260301000007_create_contact_messages_table", &table{model: &models.ContactMessage{}, name: "contact_messages"})
	migration.Register("20260301000008_create_site_settings_table", &table{model: &models.SiteSettings{}, name: "site_settings"})
	migration.Register("20260301000009_create_failed_jobs_table", &table{model: &queue.FailedJobRecord{}, name: "perennia_failed_jobs"})
}

// table creates one model's table and drops it on rollback.
type table struct {
	model interface{}
	name  string
}

func (m *table) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m *table) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}
