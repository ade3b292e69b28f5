package model

// CartItem is a persisted cart line. Identity is (ProductID, Size).
type CartItem struct {
	CartToken string `db:"cart_token" json:"-"`
	ProductID int64  `db:"product_id" json:"productId"`
	Size      string `db:"size" json:"size"`
	Quantity  int    `db:"quantity" json:"quantity"`
	AddedAt   string `db:"added_at" json:"addedAt"`
}

type SiteContent struct {
	Key       string `db:"content_key" json:"key"`
	Value     string `db:"content_value" json:"value"`
	UpdatedAt string `db:"updated_at" json:"updatedAt"`
}

// Media is the result of an upload to object storage.
type Media struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	ImageID     int64  `json:"imageId,omitempty"`
}
