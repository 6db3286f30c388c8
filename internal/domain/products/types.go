package products

import (
	"errors"
	"time"

	"storefront/internal/domain/categories"
	"storefront/internal/params"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrMediaNotFound     = errors.New("media not found")
	ErrInvalidCategory   = errors.New("category does not exist or is inactive")
	ErrInvalidDiscount   = errors.New("discount rate must be between 0 and 100")
	ErrInvalidMediaType  = errors.New("invalid media type")
	ErrTooManyThumbs     = errors.New("a product can have at most 8 thumbnails")
	ErrInvalidReorder    = errors.New("reorder list must contain every active media id of the same type exactly once")
	QueryTimeoutDuration = time.Second * 5
)

const (
	DefaultPageSize = 20
	MaxListMedia    = 8
	MaxThumbs       = 8
)

type MediaType string

const (
	MediaThumb  MediaType = "thumb"
	MediaImage  MediaType = "image"
	MediaDetail MediaType = "detail"
	MediaVideo  MediaType = "video"
)

func (t MediaType) Valid() bool {
	switch t {
	case MediaThumb, MediaImage, MediaDetail, MediaVideo:
		return true
	}
	return false
}

type Product struct {
	ID           int64      `json:"id"`
	CategoryID   int64      `json:"category_id"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	Price        int64      `json:"price"`
	DiscountRate *int       `json:"discount_rate,omitempty"`
	IsVisible    bool       `json:"is_visible"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// FinalPrice applies the discount with integer arithmetic.
func (p *Product) FinalPrice() int64 {
	if p.DiscountRate == nil || *p.DiscountRate <= 0 {
		return p.Price
	}
	return p.Price - p.Price*int64(*p.DiscountRate)/100
}

type Media struct {
	ID        int64      `json:"id"`
	ProductID int64      `json:"product_id"`
	Type      MediaType  `json:"media_type"`
	FileURL   string     `json:"file_url"`
	SortOrder int        `json:"sort_order"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// Filter is the listing predicate. A nil CategoryIDs means no category
// restriction; an empty non-nil slice matches nothing.
type Filter struct {
	CategoryIDs   []int64
	Search        *SearchFilter
	IncludeHidden bool
}

// SearchFilter matches a product by name OR by membership in one of
// CategoryIDs. A product matching both appears once.
type SearchFilter struct {
	NameContains string
	CategoryIDs  []int64
}

type ListQuery struct {
	Page          int
	CategoryID    *int64
	Search        string
	IncludeHidden bool
}

type ListItem struct {
	ID           int64    `json:"id"`
	CategoryID   int64    `json:"category_id"`
	CategoryPath string   `json:"category_path"`
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	DiscountRate *int     `json:"discount_rate,omitempty"`
	FinalPrice   int64    `json:"final_price"`
	IsVisible    bool     `json:"is_visible"`
	Media        []*Media `json:"media"`
}

type ListResult struct {
	Items      []*ListItem       `json:"items"`
	Pagination params.Pagination `json:"pagination"`
}

type Detail struct {
	Product    *Product             `json:"product"`
	FinalPrice int64                `json:"final_price"`
	Location   *categories.Location `json:"location,omitempty"`
	Thumbs     []*Media             `json:"thumbs"`
	Images     []*Media             `json:"images"`
	Details    []*Media             `json:"details"`
	Videos     []*Media             `json:"videos"`
}

type ProductInput struct {
	CategoryID   int64
	Name         string
	Description  *string
	Price        int64
	DiscountRate *int
	IsVisible    bool
}

func (in ProductInput) validate() error {
	if in.DiscountRate != nil && (*in.DiscountRate < 0 || *in.DiscountRate > 100) {
		return ErrInvalidDiscount
	}
	return nil
}

type NewMedia struct {
	Type    MediaType
	FileURL string
}
