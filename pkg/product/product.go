// Package product defines the query and record types shared by the cache,
// the record store and the query orchestrator.
package product

// QueryPayload is a caller's lookup request. Any subset of fields may be set;
// absent fields are nil and encode as explicit JSON nulls.
type QueryPayload struct {
	ProductID          *string `json:"product_id"`
	Price              *uint64 `json:"price"`
	ProductDisplayName *string `json:"product_display_name"`
	BrandName          *string `json:"brand_name"`
}

// HasProductID reports whether the payload carries a usable product ID.
func (p QueryPayload) HasProductID() bool {
	return p.ProductID != nil && *p.ProductID != ""
}

// HasDisplayName reports whether the payload carries a usable name fragment.
func (p QueryPayload) HasDisplayName() bool {
	return p.ProductDisplayName != nil && *p.ProductDisplayName != ""
}

// IsEmpty reports whether no field is set at all.
func (p QueryPayload) IsEmpty() bool {
	return p.ProductID == nil && p.Price == nil &&
		p.ProductDisplayName == nil && p.BrandName == nil
}

// Product is an authoritative product record.
type Product struct {
	ProductID          string `json:"product_id" bson:"product_id"`
	Price              uint64 `json:"price" bson:"price"`
	ProductDisplayName string `json:"product_display_name" bson:"product_display_name"`
	BrandName          string `json:"brand_name" bson:"brand_name"`
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Uint64 returns a pointer to v.
func Uint64(v uint64) *uint64 { return &v }
