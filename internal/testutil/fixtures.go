package testutil

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/query-cache/pkg/product"
)

// Widget is product 123, a Widget from Acme priced 999.
func Widget() product.Product {
	return product.Product{
		ProductID:          "123",
		Price:              999,
		ProductDisplayName: "Widget",
		BrandName:          "Acme",
	}
}

// NamedProducts returns n products whose display names all contain name,
// with alternating case so case-insensitive matching is exercised.
func NamedProducts(name string, n int) []product.Product {
	products := make([]product.Product, n)
	for i := range products {
		display := fmt.Sprintf("%s %02d", name, i)
		if i%2 == 1 {
			display = fmt.Sprintf("Deluxe %s %02d", strings.ToUpper(name), i)
		}
		products[i] = product.Product{
			ProductID:          fmt.Sprintf("%s-%03d", name, i),
			Price:              uint64(100 + i),
			ProductDisplayName: display,
			BrandName:          "Acme",
		}
	}
	return products
}

