package loader

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"atelier/admin"
	"atelier/catalog"
	"atelier/database"
	"atelier/model"
	"atelier/parsers"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// InitDatabase applies the schema and moves the code sequences past any
// order numbers or SKUs already stored.
func InitDatabase(db *sqlx.DB) error {
	zap.S().Info("Applying database schema...")
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	zap.S().Info("Schema applied successfully.")

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for sequence initialization: %w", err)
	}
	defer tx.Rollback()

	for _, seq := range []database.Sequence{database.OrderNumberSequence, database.SKUSequence} {
		if err := database.InitializeSequenceFromMax(tx, seq); err != nil {
			zap.S().Warnf("Failed to initialize %s sequence: %v", seq.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sequence initialization: %w", err)
	}
	zap.S().Info("Code sequences initialized.")
	return nil
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// saveProductInTx saves in over existing, or creates it when existing is nil.
func saveProductInTx(tx *sqlx.Tx, in *model.ProductInput, existing *model.Product, res *ImportResult) error {
	if existing != nil {
		in.ID = existing.ID
		if in.SKU == "" {
			in.SKU = existing.SKU
		}
	}
	if _, err := admin.SaveProductInTx(tx, in); err != nil {
		return err
	}
	if existing != nil {
		res.Updated++
	} else {
		res.Created++
	}
	return nil
}

// findProductInTx matches an existing product by SKU, then by slug (derived
// from the name when empty).
func findProductInTx(tx *sqlx.Tx, in *model.ProductInput) (*model.Product, error) {
	if sku := strings.ToUpper(strings.TrimSpace(in.SKU)); sku != "" {
		p, err := database.GetProductBySKU(tx, sku)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}
	slug := catalog.Slugify(in.Slug)
	if slug == "" {
		slug = catalog.Slugify(in.Name)
	}
	if slug == "" {
		return nil, nil
	}
	p, err := database.GetProductBySlug(tx, slug)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// collectionIDInTx resolves a collection by slug or name, creating it when
// missing. An empty ref means no collection.
func collectionIDInTx(tx *sqlx.Tx, ref string, cache map[string]int64) (*int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	slug := catalog.Slugify(ref)
	if id, ok := cache[slug]; ok {
		return &id, nil
	}

	var id int64
	err := tx.Get(&id, `SELECT id FROM collections WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		zap.S().Infof("Creating collection %s for imported products", slug)
		id, err = database.UpsertCollectionBySlug(tx, &model.CollectionInput{Slug: slug, Name: ref, IsActive: true})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve collection %s: %w", ref, err)
	}
	cache[slug] = id
	return &id, nil
}

// inputFromProduct copies the stored fields of p. Sizes and images stay nil
// so saving leaves them as they are.
func inputFromProduct(p *model.Product) *model.ProductInput {
	return &model.ProductInput{
		ID:             p.ID,
		SKU:            p.SKU,
		Slug:           p.Slug,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		CollectionID:   p.CollectionID,
		PriceCents:     p.PriceCents,
		CompareAtCents: p.CompareAtCents,
		IsFeatured:     p.IsFeatured,
		IsNew:          p.IsNew,
		IsActive:       p.IsActive,
	}
}

// rowInputInTx builds the input for one CSV row. For an existing product
// only the columns present in the file are changed.
func rowInputInTx(tx *sqlx.Tx, row parsers.ProductRow, existing *model.Product, collections map[string]int64) (*model.ProductInput, error) {
	var in *model.ProductInput
	if existing == nil {
		colID, err := collectionIDInTx(tx, row.Collection, collections)
		if err != nil {
			return nil, err
		}
		in = &model.ProductInput{
			Slug:           row.Slug,
			Description:    row.Description,
			Category:       row.Category,
			CollectionID:   colID,
			CompareAtCents: row.CompareAtCents,
			IsFeatured:     row.Featured,
			IsNew:          row.New,
			IsActive:       !row.Has("active") || row.Active,
		}
	} else {
		in = inputFromProduct(existing)
		if row.Has("slug") && row.Slug != "" {
			in.Slug = row.Slug
		}
		if row.Has("description") {
			in.Description = row.Description
		}
		if row.Has("category") {
			in.Category = row.Category
		}
		if row.Has("collection") {
			colID, err := collectionIDInTx(tx, row.Collection, collections)
			if err != nil {
				return nil, err
			}
			in.CollectionID = colID
		}
		if row.Has("compare_at_price") {
			in.CompareAtCents = row.CompareAtCents
		}
		if row.Has("featured") {
			in.IsFeatured = row.Featured
		}
		if row.Has("new") {
			in.IsNew = row.New
		}
		if row.Has("active") {
			in.IsActive = row.Active
		}
	}

	in.Name = row.Name
	in.PriceCents = row.PriceCents
	if row.SKU != "" {
		in.SKU = row.SKU
	}
	// An empty sizes or images cell keeps what the product already has.
	if len(row.Sizes) > 0 {
		in.Sizes = row.Sizes
	}
	if len(row.Images) > 0 {
		in.Images = make([]model.ProductImage, 0, len(row.Images))
		for i, url := range row.Images {
			in.Images = append(in.Images, model.ProductImage{URL: url, Alt: row.Name, Position: i})
		}
	}
	return in, nil
}

// ImportProducts stores parsed CSV rows in one transaction. New products
// are active unless the file has an active column.
func ImportProducts(db *sqlx.DB, rows []parsers.ProductRow) (*ImportResult, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res := &ImportResult{}
	collections := map[string]int64{}
	for _, row := range rows {
		existing, err := findProductInTx(tx, &model.ProductInput{SKU: row.SKU, Slug: row.Slug, Name: row.Name})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		in, err := rowInputInTx(tx, row, existing, collections)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		if err := saveProductInTx(tx, in, existing, res); err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", row.Line, row.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	zap.S().Infof("Imported products: %d created, %d updated", res.Created, res.Updated)
	return res, nil
}

type seedCollection struct {
	Slug          string `yaml:"slug"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	CoverImageURL string `yaml:"coverImageUrl"`
	SortOrder     int    `yaml:"sortOrder"`
	Active        *bool  `yaml:"active"`
}

type seedSize struct {
	Size  string `yaml:"size"`
	Stock int    `yaml:"stock"`
}

type seedProduct struct {
	SKU            string     `yaml:"sku"`
	Slug           string     `yaml:"slug"`
	Name           string     `yaml:"name"`
	Description    string     `yaml:"description"`
	Category       string     `yaml:"category"`
	Collection     string     `yaml:"collection"`
	Price          string     `yaml:"price"`
	CompareAtPrice string     `yaml:"compareAtPrice"`
	Featured       bool       `yaml:"featured"`
	New            bool       `yaml:"new"`
	Active         *bool      `yaml:"active"`
	Sizes          []seedSize `yaml:"sizes"`
	Images         []string   `yaml:"images"`
}

// Seed is the YAML document read by LoadSeed.
type Seed struct {
	Collections []seedCollection  `yaml:"collections"`
	Products    []seedProduct     `yaml:"products"`
	Content     map[string]string `yaml:"content"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// LoadSeed upserts the collections, products and homepage copy of a YAML
// seed in one transaction.
func LoadSeed(db *sqlx.DB, r io.Reader) (*ImportResult, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	collections := map[string]int64{}
	for _, c := range seed.Collections {
		slug := catalog.Slugify(c.Slug)
		if slug == "" {
			slug = catalog.Slugify(c.Name)
		}
		id, err := database.UpsertCollectionBySlug(tx, &model.CollectionInput{
			Slug:          slug,
			Name:          c.Name,
			Description:   c.Description,
			CoverImageURL: c.CoverImageURL,
			SortOrder:     c.SortOrder,
			IsActive:      boolOr(c.Active, true),
		})
		if err != nil {
			return nil, err
		}
		collections[slug] = id
	}

	res := &ImportResult{}
	for _, p := range seed.Products {
		price, err := parsers.ParsePrice(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", p.Name, err)
		}
		var compareAt int64
		if p.CompareAtPrice != "" {
			if compareAt, err = parsers.ParsePrice(p.CompareAtPrice); err != nil {
				return nil, fmt.Errorf("product %s: %w", p.Name, err)
			}
		}
		colID, err := collectionIDInTx(tx, p.Collection, collections)
		if err != nil {
			return nil, err
		}

		in := &model.ProductInput{
			SKU:            p.SKU,
			Slug:           p.Slug,
			Name:           p.Name,
			Description:    p.Description,
			Category:       p.Category,
			CollectionID:   colID,
			PriceCents:     price,
			CompareAtCents: compareAt,
			IsFeatured:     p.Featured,
			IsNew:          p.New,
			IsActive:       boolOr(p.Active, true),
			Sizes:          make([]model.ProductSize, 0, len(p.Sizes)),
			Images:         make([]model.ProductImage, 0, len(p.Images)),
		}
		for _, s := range p.Sizes {
			in.Sizes = append(in.Sizes, model.ProductSize{Size: s.Size, Stock: s.Stock})
		}
		for i, url := range p.Images {
			in.Images = append(in.Images, model.ProductImage{URL: url, Alt: p.Name, Position: i})
		}
		existing, err := findProductInTx(tx, in)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", p.Name, err)
		}
		if err := saveProductInTx(tx, in, existing, res); err != nil {
			return nil, fmt.Errorf("product %s: %w", p.Name, err)
		}
	}

	if len(seed.Content) > 0 {
		if err := database.UpsertContentInTx(tx, seed.Content); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seed: %w", err)
	}
	zap.S().Infof("Seed loaded: %d collections, %d products created, %d updated, %d content keys",
		len(seed.Collections), res.Created, res.Updated, len(seed.Content))
	return res, nil
}
