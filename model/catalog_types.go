package model

// Product is a row of the products table with its sizes and images attached.
type Product struct {
	ID             int64  `db:"id" json:"id"`
	SKU            string `db:"sku" json:"sku"`
	Slug           string `db:"slug" json:"slug"`
	Name           string `db:"name" json:"name"`
	Description    string `db:"description" json:"description"`
	Category       string `db:"category" json:"category"`
	CollectionID   *int64 `db:"collection_id" json:"collectionId,omitempty"`
	CollectionSlug string `db:"collection_slug" json:"collectionSlug,omitempty"`
	PriceCents     int64  `db:"price_cents" json:"priceCents"`
	CompareAtCents int64  `db:"compare_at_cents" json:"compareAtCents"`
	IsFeatured     bool   `db:"is_featured" json:"isFeatured"`
	IsNew          bool   `db:"is_new" json:"isNew"`
	IsActive       bool   `db:"is_active" json:"isActive"`
	CreatedAt      string `db:"created_at" json:"createdAt"`
	UpdatedAt      string `db:"updated_at" json:"updatedAt"`

	Sizes  []ProductSize  `db:"-" json:"sizes"`
	Images []ProductImage `db:"-" json:"images"`
}

type ProductSize struct {
	ProductID int64  `db:"product_id" json:"-"`
	Size      string `db:"size" json:"size"`
	Stock     int    `db:"stock" json:"stock"`
}

type ProductImage struct {
	ID         int64  `db:"id" json:"id"`
	ProductID  int64  `db:"product_id" json:"productId"`
	StorageKey string `db:"storage_key" json:"storageKey,omitempty"`
	URL        string `db:"url" json:"url"`
	Alt        string `db:"alt" json:"alt"`
	Position   int    `db:"position" json:"position"`
}

// ProductInput is the admin payload for creating or updating a product.
// A zero ID creates a new product.
type ProductInput struct {
	ID             int64          `json:"id"`
	SKU            string         `json:"sku"`
	Slug           string         `json:"slug"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	CollectionID   *int64         `json:"collectionId"`
	PriceCents     int64          `json:"priceCents"`
	CompareAtCents int64          `json:"compareAtCents"`
	IsFeatured     bool           `json:"isFeatured"`
	IsNew          bool           `json:"isNew"`
	IsActive       bool           `json:"isActive"`
	Sizes          []ProductSize  `json:"sizes"`
	Images         []ProductImage `json:"images"`
}

// ProductFilters narrows catalog listings. Zero values mean "no filter".
type ProductFilters struct {
	CollectionSlug string
	Category       string
	Search         string
	FeaturedOnly   bool
	NewOnly        bool
	IncludeHidden  bool
	Sort           string
	Limit          int
	Offset         int
}

// ProductView is a product prepared for display.
type ProductView struct {
	Product
	FormattedPrice     string     `json:"formattedPrice"`
	FormattedCompareAt string     `json:"formattedCompareAt,omitempty"`
	DiscountPercent    int        `json:"discountPercent,omitempty"`
	InStock            bool       `json:"inStock"`
	SizeViews          []SizeView `json:"sizeOptions"`
	CoverImage         string     `json:"coverImage,omitempty"`
	IsFavorite         bool       `json:"isFavorite,omitempty"`
}

type SizeView struct {
	Size      string `json:"size"`
	Label     string `json:"label"`
	Stock     int    `json:"stock"`
	Available bool   `json:"available"`
}

// PriceUpdate sets a product's price. A nil CompareAtCents keeps the stored
// compare-at price.
type PriceUpdate struct {
	ProductID      int64  `json:"productId"`
	SKU            string `json:"sku,omitempty"`
	PriceCents     int64  `json:"priceCents"`
	CompareAtCents *int64 `json:"compareAtCents,omitempty"`
}

type Collection struct {
	ID            int64  `db:"id" json:"id"`
	Slug          string `db:"slug" json:"slug"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description"`
	CoverImageURL string `db:"cover_image_url" json:"coverImageUrl"`
	SortOrder     int    `db:"sort_order" json:"sortOrder"`
	IsActive      bool   `db:"is_active" json:"isActive"`
	CreatedAt     string `db:"created_at" json:"createdAt"`
	UpdatedAt     string `db:"updated_at" json:"updatedAt"`
}

type CollectionInput struct {
	ID            int64  `json:"id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	CoverImageURL string `json:"coverImageUrl"`
	SortOrder     int    `json:"sortOrder"`
	IsActive      bool   `json:"isActive"`
}
