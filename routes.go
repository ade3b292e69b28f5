package main

import (
	"net/http"

	"atelier/admin"
	"atelier/auth"
	"atelier/automation"
	"atelier/cart"
	"atelier/catalog"
	"atelier/checkout"
	"atelier/config"
	"atelier/favorites"
	"atelier/loader"
	"atelier/pricing"
	"atelier/storage"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func SetupRoutes(dbConn *sqlx.DB, store *storage.DiskStore) *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.PathPrefix("/media/").Handler(store.Handler()).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/home", catalog.HomeHandler(dbConn)).Methods(http.MethodGet)
	api.HandleFunc("/products", catalog.ListProductsHandler(dbConn)).Methods(http.MethodGet)
	api.HandleFunc("/products/{slug}", catalog.GetProductHandler(dbConn)).Methods(http.MethodGet)
	api.HandleFunc("/collections", catalog.ListCollectionsHandler(dbConn)).Methods(http.MethodGet)
	api.HandleFunc("/collections/{slug}", catalog.GetCollectionHandler(dbConn)).Methods(http.MethodGet)
	api.HandleFunc("/categories", catalog.ListCategoriesHandler(dbConn)).Methods(http.MethodGet)

	api.HandleFunc("/cart", cart.GetCartHandler(dbConn)).Methods(http.MethodGet)
	api.HandleFunc("/cart", cart.ClearCartHandler(dbConn)).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", cart.AddItemHandler(dbConn)).Methods(http.MethodPost)
	api.HandleFunc("/cart/items", cart.UpdateItemHandler(dbConn)).Methods(http.MethodPut)
	api.HandleFunc("/cart/items", cart.RemoveItemHandler(dbConn)).Methods(http.MethodDelete)

	api.HandleFunc("/favorites", favorites.ListFavoritesHandler(dbConn)).Methods(http.MethodGet)
	api.HandleFunc("/favorites", favorites.ToggleFavoriteHandler(dbConn)).Methods(http.MethodPost)

	api.HandleFunc("/checkout", checkout.CheckoutHandler(dbConn)).Methods(http.MethodPost)

	api.HandleFunc("/admin/login", auth.LoginHandler()).Methods(http.MethodPost)
	api.HandleFunc("/admin/logout", auth.LogoutHandler()).Methods(http.MethodPost)

	adm := api.PathPrefix("/admin").Subrouter()
	adm.Use(auth.Middleware(func() string { return config.GetConfig().JWTSecret }))

	adm.HandleFunc("/me", auth.MeHandler()).Methods(http.MethodGet)

	adm.HandleFunc("/products", admin.ListProductsHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/products", admin.SaveProductHandler(dbConn)).Methods(http.MethodPost)
	adm.HandleFunc("/products/import", loader.ImportProductsHandler(dbConn)).Methods(http.MethodPost)
	adm.HandleFunc("/products/{id:[0-9]+}", admin.GetProductHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/products/{id:[0-9]+}", admin.SaveProductHandler(dbConn)).Methods(http.MethodPut)
	adm.HandleFunc("/products/{id:[0-9]+}", admin.DeleteProductHandler(dbConn, store)).Methods(http.MethodDelete)
	adm.HandleFunc("/products/{id:[0-9]+}/flags", admin.SetProductFlagsHandler(dbConn)).Methods(http.MethodPatch)

	adm.HandleFunc("/collections", admin.ListCollectionsHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/collections", admin.SaveCollectionHandler(dbConn)).Methods(http.MethodPost)
	adm.HandleFunc("/collections/{id:[0-9]+}", admin.SaveCollectionHandler(dbConn)).Methods(http.MethodPut)
	adm.HandleFunc("/collections/{id:[0-9]+}", admin.DeleteCollectionHandler(dbConn)).Methods(http.MethodDelete)

	adm.HandleFunc("/orders", admin.ListOrdersHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/orders/{id}", admin.GetOrderHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/orders/{id}", admin.DeleteOrderHandler(dbConn)).Methods(http.MethodDelete)
	adm.HandleFunc("/orders/{id}/status", admin.UpdateOrderStatusHandler(dbConn)).Methods(http.MethodPatch)
	adm.HandleFunc("/orders/{id}/whatsapp", admin.RefreshWhatsAppLinkHandler(dbConn)).Methods(http.MethodPost)
	adm.HandleFunc("/orders/{id}/slip", admin.OrderSlipHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/orders/{id}/slip.pdf", automation.OrderSlipPDFHandler(dbConn)).Methods(http.MethodGet)

	adm.HandleFunc("/content", admin.GetContentHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/content", admin.SaveContentHandler(dbConn)).Methods(http.MethodPut)
	adm.HandleFunc("/content/{key}", admin.DeleteContentHandler(dbConn)).Methods(http.MethodDelete)

	adm.HandleFunc("/media", admin.UploadMediaHandler(dbConn, store)).Methods(http.MethodPost)
	adm.HandleFunc("/media", admin.DeleteMediaHandler(store)).Methods(http.MethodDelete)
	adm.HandleFunc("/media/images/{id:[0-9]+}", admin.DeleteProductImageHandler(dbConn, store)).Methods(http.MethodDelete)

	adm.HandleFunc("/pricing/update", pricing.BulkUpdateHandler(dbConn)).Methods(http.MethodPost)
	adm.HandleFunc("/pricing/export", pricing.ExportHandler(dbConn)).Methods(http.MethodGet)
	adm.HandleFunc("/pricing/import", pricing.ImportHandler(dbConn)).Methods(http.MethodPost)

	adm.HandleFunc("/config", GetConfigHandler()).Methods(http.MethodGet)
	adm.HandleFunc("/config", SaveConfigHandler()).Methods(http.MethodPost)

	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zap.S().Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
