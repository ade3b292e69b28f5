// Package catalog serves the public storefront: product listing and detail,
// collections, categories and the homepage payload.
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"atelier/cart"
	"atelier/database"
	"atelier/mappers"
	"atelier/model"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

const (
	relatedLimit  = 4
	homeListLimit = 8
	maxPageSize   = 100
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func favoriteSet(db *sqlx.DB, r *http.Request) map[int64]bool {
	token := cart.PeekToken(r)
	if token == "" {
		return nil
	}
	set, err := database.GetFavoriteSet(db, token)
	if err != nil {
		return nil
	}
	return set
}

// FiltersFromQuery reads product filters from the query string. Hidden
// products are never included here.
func FiltersFromQuery(r *http.Request) model.ProductFilters {
	q := r.URL.Query()
	f := model.ProductFilters{
		CollectionSlug: q.Get("collection"),
		Category:       q.Get("category"),
		Search:         q.Get("q"),
		FeaturedOnly:   q.Get("featured") == "true" || q.Get("featured") == "1",
		NewOnly:        q.Get("new") == "true" || q.Get("new") == "1",
		Sort:           q.Get("sort"),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		if n > maxPageSize {
			n = maxPageSize
		}
		f.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		f.Offset = n
	}
	return f
}

// ListProductsHandler serves GET /api/products.
func ListProductsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := database.ListProducts(db, FiltersFromQuery(r))
		if err != nil {
			writeJSONError(w, "Falha ao carregar produtos: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, mappers.ToProductViews(products, favoriteSet(db, r)))
	}
}

// RelatedProducts picks up to four active products sharing p's collection,
// falling back to its category.
func RelatedProducts(dbtx database.DBTX, p *model.Product) ([]model.Product, error) {
	f := model.ProductFilters{Limit: relatedLimit + 1}
	switch {
	case p.CollectionSlug != "":
		f.CollectionSlug = p.CollectionSlug
	case p.Category != "":
		f.Category = p.Category
	default:
		return []model.Product{}, nil
	}
	candidates, err := database.ListProducts(dbtx, f)
	if err != nil {
		return nil, err
	}
	related := make([]model.Product, 0, relatedLimit)
	for _, c := range candidates {
		if c.ID == p.ID {
			continue
		}
		related = append(related, c)
		if len(related) == relatedLimit {
			break
		}
	}
	return related, nil
}

// GetProductHandler serves GET /api/products/{slug}.
func GetProductHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]
		p, err := database.GetProductBySlug(db, slug)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Falha ao carregar o produto: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err != nil || !p.IsActive {
			writeJSONError(w, "Produto não encontrado.", http.StatusNotFound)
			return
		}

		related, err := RelatedProducts(db, p)
		if err != nil {
			writeJSONError(w, "Falha ao carregar produtos relacionados: "+err.Error(), http.StatusInternalServerError)
			return
		}

		favs := favoriteSet(db, r)
		view := mappers.ToProductView(p)
		view.IsFavorite = favs[p.ID]
		writeJSON(w, map[string]interface{}{
			"product": view,
			"related": mappers.ToProductViews(related, favs),
		})
	}
}

// ListCollectionsHandler serves GET /api/collections.
func ListCollectionsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collections, err := database.ListCollections(db, false)
		if err != nil {
			writeJSONError(w, "Falha ao carregar coleções: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, collections)
	}
}

// GetCollectionHandler serves GET /api/collections/{slug} with its products.
func GetCollectionHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]
		c, err := database.GetCollectionBySlug(db, slug)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Falha ao carregar a coleção: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err != nil || !c.IsActive {
			writeJSONError(w, "Coleção não encontrada.", http.StatusNotFound)
			return
		}

		f := FiltersFromQuery(r)
		f.CollectionSlug = c.Slug
		products, err := database.ListProducts(db, f)
		if err != nil {
			writeJSONError(w, "Falha ao carregar produtos: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{
			"collection": c,
			"products":   mappers.ToProductViews(products, favoriteSet(db, r)),
		})
	}
}

// ListCategoriesHandler serves GET /api/categories.
func ListCategoriesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := database.ListCategories(db)
		if err != nil {
			writeJSONError(w, "Falha ao carregar categorias: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, categories)
	}
}

type Home struct {
	Content     map[string]string   `json:"content"`
	Featured    []model.ProductView `json:"featured"`
	NewArrivals []model.ProductView `json:"newArrivals"`
	Collections []model.Collection  `json:"collections"`
}

// LoadHome gathers the homepage sections concurrently.
func LoadHome(r *http.Request, db *sqlx.DB) (*Home, error) {
	var g errgroup.Group
	var (
		content     map[string]string
		featured    []model.Product
		arrivals    []model.Product
		collections []model.Collection
	)
	g.Go(func() (err error) {
		content, err = database.GetContentMap(db)
		return err
	})
	g.Go(func() (err error) {
		featured, err = database.ListProducts(db, model.ProductFilters{FeaturedOnly: true, Limit: homeListLimit})
		return err
	})
	g.Go(func() (err error) {
		arrivals, err = database.ListProducts(db, model.ProductFilters{NewOnly: true, Sort: "newest", Limit: homeListLimit})
		return err
	})
	g.Go(func() (err error) {
		collections, err = database.ListCollections(db, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	favs := favoriteSet(db, r)
	return &Home{
		Content:     content,
		Featured:    mappers.ToProductViews(featured, favs),
		NewArrivals: mappers.ToProductViews(arrivals, favs),
		Collections: collections,
	}, nil
}

// HomeHandler serves GET /api/home.
func HomeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		home, err := LoadHome(r, db)
		if err != nil {
			writeJSONError(w, "Falha ao carregar a página inicial: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, home)
	}
}
