package handlers

import (
	"github.com/jmoiron/sqlx"

	"shopfront/internal/config"
	"shopfront/internal/repos"
	"shopfront/internal/services"
	"shopfront/internal/storage"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, images ImageStore) *Deps {
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	if images == nil {
		images = storage.NewDisk(cfg.MediaDir)
	}

	catalogSvc := services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db))
	invSvc := services.NewInventoryService(repos.NewInventoryRepo(db))
	cartSvc := services.NewCartService(db)
	orderSvc := services.NewOrderService(db)
	adminSvc := services.NewAdminService(db, orderSvc)

	return &Deps{
		Auth:             auth,
		AuthHandler:      &AuthHandler{Auth: auth, SecureCookies: cfg.SecureCookies},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc},
		AdminHandler:     &AdminHandler{Admin: adminSvc, Images: images},
	}
}
