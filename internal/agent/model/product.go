package model

import "github.com/shopspring/decimal"

// Product is one row of the shop's product table. Field names follow the
// table columns. Optional descriptive fields are empty when absent or null.
type Product struct {
	Name     string          `json:"nama_produk"`
	Category string          `json:"kategori_produk"`
	Subtype  string          `json:"jenis_produk"`
	Price    decimal.Decimal `json:"harga"`
	Unit     string          `json:"satuan_jual"`
	Stock    int64           `json:"stok"`

	Description      string `json:"deskripsi,omitempty"`
	Function         string `json:"fungsi_produk,omitempty"`
	IntendedUse      string `json:"peruntukan_produk,omitempty"`
	ActiveIngredient string `json:"bahan_aktif,omitempty"`
	ApplicationHow   string `json:"cara_aplikasi,omitempty"`
}

// ShopProfile is fixed at deployment and never read from the catalog.
type ShopProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
	Contact string `json:"contact"`
}
