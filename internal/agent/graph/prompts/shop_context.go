package prompts

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/toko-tani/assistant/internal/agent/catalog"
	"github.com/toko-tani/assistant/internal/agent/model"
)

const (
	ProductListHeading = "Daftar Produk (Data Real-time dari Database):"
	CatalogInstruction = "Instruksi: Jawablah pertanyaan pelanggan dengan ramah berdasarkan data di atas.\n" +
		"Jika pelanggan bertanya tentang produk yang tidak ada di daftar, katakan stok belum tersedia.\n"

	UnavailableHeading  = "Daftar Produk:"
	UnavailableNotice   = "Maaf, data produk sedang tidak dapat diakses saat ini (Error Database)."
	DegradedInstruction = "Instruksi: Jawablah pertanyaan umum tentang toko (alamat, jam, kontak).\n" +
		"Untuk produk, sampaikan permohonan maaf bahwa sistem sedang gangguan.\n"
	ErrorDetailsLabel = "Error details: "
)

// Optional product lines, in output order.
var optionalFields = []struct {
	label string
	value func(model.Product) string
}{
	{"Deskripsi", func(p model.Product) string { return p.Description }},
	{"Fungsi", func(p model.Product) string { return p.Function }},
	{"Peruntukan", func(p model.Product) string { return p.IntendedUse }},
	{"Bahan Aktif", func(p model.Product) string { return p.ActiveIngredient }},
	{"Cara Aplikasi", func(p model.Product) string { return p.ApplicationHow }},
}

// ProfileHeader renders the fixed shop header that opens every ShopContext.
func ProfileHeader(p model.ShopProfile) string {
	return fmt.Sprintf("Nama Toko: %s\nAlamat: %s\nJam Operasional: %s\nKontak: %s\n",
		p.Name, p.Address, p.Hours, p.Contact)
}

// Synthesize builds the system context handed to the completion endpoint.
// A failed fetch yields the degraded context; an empty but successful fetch
// still yields the catalog context with no entries.
func Synthesize(profile model.ShopProfile, result catalog.FetchResult) string {
	var sb strings.Builder
	sb.WriteString(ProfileHeader(profile))
	sb.WriteString("\n\n")

	if result.Failed() {
		sb.WriteString(UnavailableHeading + "\n")
		sb.WriteString(UnavailableNotice + "\n\n")
		sb.WriteString(DegradedInstruction)
		sb.WriteString(ErrorDetailsLabel + result.Err.Error() + "\n")
		return sb.String()
	}

	sb.WriteString(ProductListHeading + "\n")
	for i, p := range result.Products {
		writeProduct(&sb, i+1, p)
	}
	sb.WriteString("\n\n")
	sb.WriteString(CatalogInstruction)
	return sb.String()
}

func writeProduct(sb *strings.Builder, ordinal int, p model.Product) {
	fmt.Fprintf(sb, "%d. Nama: %s\n", ordinal, p.Name)
	fmt.Fprintf(sb, "   - Kategori: %s (%s)\n", p.Category, p.Subtype)
	fmt.Fprintf(sb, "   - Harga: Rp %s / %s\n", FormatPrice(p.Price), p.Unit)
	fmt.Fprintf(sb, "   - Stok: %d\n", p.Stock)
	for _, f := range optionalFields {
		if v := f.value(p); v != "" {
			fmt.Fprintf(sb, "   - %s: %s\n", f.label, v)
		}
	}
	sb.WriteString("\n")
}

// FormatPrice groups thousands with commas. Whole amounts carry no decimals.
func FormatPrice(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatPrice(d.Neg())
	}
	whole := d.Truncate(0)
	s := humanize.Comma(whole.IntPart())
	if d.Equal(whole) {
		return s
	}
	return s + strings.TrimPrefix(d.Sub(whole).String(), "0")
}
