package service

import (
	"strconv"

	"github.com/sweetlab/sweetshop/internal/store"
)

// SweetCreateDto represents the data transfer object for creating a new sweet.
type SweetCreateDto struct {
	Name        string  `json:"name"        validate:"required,max=100"`
	Category    string  `json:"category"    validate:"required,max=100"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Stock       int32   `json:"stock"       validate:"gte=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// SweetUpdateDto represents a partial update; nil fields keep their previous
// values. At least one field must be set, enforced at the transport layer.
type SweetUpdateDto struct {
	Name        *string  `json:"name,omitempty"        validate:"omitempty,min=1,max=100"`
	Category    *string  `json:"category,omitempty"    validate:"omitempty,min=1,max=100"`
	Price       *float64 `json:"price,omitempty"       validate:"omitempty,gte=0"`
	Stock       *int32   `json:"stock,omitempty"       validate:"omitempty,gte=0"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
}

// IsEmpty reports whether the patch contains no fields.
func (d SweetUpdateDto) IsEmpty() bool {
	return d.Name == nil && d.Category == nil && d.Price == nil && d.Stock == nil && d.Description == nil
}

// SweetDto represents the data transfer object for a sweet, shaped for the
// HTTP surface and for cache entries.
type SweetDto struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int32   `json:"stock"`
	Description *string `json:"description,omitempty"`
}

// PurchaseDto is the post-purchase state of a sweet plus the derived total
// price for the transaction. The total is never persisted.
type PurchaseDto struct {
	SweetDto
	TotalPrice float64 `json:"total_price"`
}

// QuantityDto carries the quantity for purchase and restock requests.
type QuantityDto struct {
	Quantity int32 `json:"quantity" validate:"required,gt=0"`
}

// SearchCriteria describes a catalog search. Empty strings and nil bounds
// mean the criterion is absent. MinPrice <= MaxPrice is enforced at the
// transport layer.
type SearchCriteria struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// cacheKey builds a deterministic cache key for the criteria: fields are
// serialized in a fixed order so equal criteria always map to the same entry.
func (c SearchCriteria) cacheKey() string {
	return cachePrefix + "search:name=" + c.Name +
		"&category=" + c.Category +
		"&min=" + formatBound(c.MinPrice) +
		"&max=" + formatBound(c.MaxPrice)
}

func formatBound(bound *float64) string {
	if bound == nil {
		return "-"
	}
	return strconv.FormatFloat(*bound, 'f', -1, 64)
}

// toDto converts a store.Sweet to a SweetDto.
func toDto(sweet *store.Sweet) *SweetDto {
	return &SweetDto{
		ID:          sweet.ID.String(),
		Name:        sweet.Name,
		Category:    sweet.Category,
		Price:       sweet.Price,
		Stock:       sweet.Stock,
		Description: sweet.Description,
	}
}

// toDtos converts a slice of store.Sweet to SweetDtos.
func toDtos(sweets []store.Sweet) []SweetDto {
	dtos := make([]SweetDto, len(sweets))
	for i, item := range sweets {
		dtos[i] = *toDto(&item)
	}
	return dtos
}
