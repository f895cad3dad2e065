package prompts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toko-tani/assistant/internal/agent/catalog"
	"github.com/toko-tani/assistant/internal/agent/model"
	errx "github.com/toko-tani/assistant/internal/core/error"
)

var tokoA = model.ShopProfile{Name: "Toko A", Address: "Jl. X", Hours: "08:00-17:00", Contact: "0812-1111-2222"}

func urea() model.Product {
	return model.Product{
		Name: "Urea", Category: "Pupuk", Subtype: "Kimia",
		Price: decimal.NewFromInt(150000), Unit: "karung", Stock: 20,
	}
}

func TestSynthesizeWorkedExample(t *testing.T) {
	out := Synthesize(tokoA, catalog.FetchResult{Products: []model.Product{urea()}})

	want := "Nama Toko: Toko A\nAlamat: Jl. X\nJam Operasional: 08:00-17:00\nKontak: 0812-1111-2222\n" +
		"\n\n" + ProductListHeading + "\n" +
		"1. Nama: Urea\n   - Kategori: Pupuk (Kimia)\n   - Harga: Rp 150,000 / karung\n   - Stok: 20\n\n" +
		"\n\n" + CatalogInstruction
	assert.Equal(t, want, out)
	assert.NotContains(t, out, "Deskripsi")
}

func TestSynthesizeFailureKeepsHeaderAndCause(t *testing.T) {
	cause := errors.New("dial tcp: lookup abc.supabase.co: no such host")
	out := Synthesize(tokoA, catalog.FetchResult{Err: errx.WrapCatalog(cause)})

	assert.True(t, strings.HasPrefix(out, ProfileHeader(tokoA)+"\n\n"+UnavailableHeading+"\n"))
	assert.Contains(t, out, UnavailableNotice+"\n\n"+DegradedInstruction)
	assert.True(t, strings.HasSuffix(out, ErrorDetailsLabel+"catalog fetch failed: "+cause.Error()+"\n"))
	assert.Contains(t, out, cause.Error())
	assert.Contains(t, out, UnavailableNotice)
	assert.Contains(t, out, DegradedInstruction)
	assert.NotContains(t, out, ProductListHeading)
	assert.NotContains(t, out, CatalogInstruction)
}

func TestSynthesizeEmptyCatalogUsesSuccessShape(t *testing.T) {
	out := Synthesize(tokoA, catalog.FetchResult{Products: []model.Product{}})

	assert.True(t, strings.HasPrefix(out, ProfileHeader(tokoA)))
	assert.Contains(t, out, ProductListHeading)
	assert.Contains(t, out, CatalogInstruction)
	assert.NotContains(t, out, UnavailableNotice)
	assert.NotContains(t, out, "1. Nama:")
}

func TestSynthesizeEnumeratesInInputOrder(t *testing.T) {
	names := []string{"Urea", "NPK Mutiara", "Benih Jagung", "Gramoxone", "ZA"}
	products := make([]model.Product, 0, len(names))
	for _, n := range names {
		p := urea()
		p.Name = n
		products = append(products, p)
	}
	out := Synthesize(tokoA, catalog.FetchResult{Products: products})

	assert.Equal(t, len(names), strings.Count(out, ". Nama: "))
	last := -1
	for i, n := range names {
		entry := fmt.Sprintf("%d. Nama: %s\n", i+1, n)
		idx := strings.Index(out, entry)
		require.GreaterOrEqual(t, idx, 0, entry)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestSynthesizeOptionalFields(t *testing.T) {
	full := urea()
	full.Description = "Pupuk nitrogen 46%"
	full.Function = "Mempercepat pertumbuhan daun"
	full.IntendedUse = "Padi, jagung"
	full.ActiveIngredient = "Nitrogen"
	full.ApplicationHow = "Tabur di sekitar tanaman"
	bare := urea()
	bare.Name = "ZA"

	out := Synthesize(tokoA, catalog.FetchResult{Products: []model.Product{full, bare}})

	for _, line := range []string{
		"   - Deskripsi: Pupuk nitrogen 46%\n",
		"   - Fungsi: Mempercepat pertumbuhan daun\n",
		"   - Peruntukan: Padi, jagung\n",
		"   - Bahan Aktif: Nitrogen\n",
		"   - Cara Aplikasi: Tabur di sekitar tanaman\n",
	} {
		assert.Equal(t, 1, strings.Count(out, line), line)
	}

	zaEntry := out[strings.Index(out, "2. Nama: ZA"):]
	for _, label := range []string{"Deskripsi", "Fungsi", "Peruntukan", "Bahan Aktif", "Cara Aplikasi"} {
		assert.NotContains(t, zaEntry, label)
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	res := catalog.FetchResult{Products: []model.Product{urea()}}
	assert.Equal(t, Synthesize(tokoA, res), Synthesize(tokoA, res))

	failed := catalog.FetchResult{Err: errors.New("timeout")}
	assert.Equal(t, Synthesize(tokoA, failed), Synthesize(tokoA, failed))
}

func TestFormatPrice(t *testing.T) {
	cases := map[string]string{
		"0":          "0",
		"950":        "950",
		"150000":     "150,000",
		"1250000.00": "1,250,000",
		"87500.5":    "87,500.5",
		"12500.75":   "12,500.75",
		"-5000":      "-5,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPrice(decimal.RequireFromString(in)), in)
	}
}

func TestRenderGreeting(t *testing.T) {
	got, err := RenderGreeting(context.Background(), model.ShopProfile{Name: "Toko Tani Suka Maju"})
	require.NoError(t, err)
	assert.Equal(t, "Selamat Datang di Toko Tani Suka Maju. Ada yang bisa Saya Bantu?", got)
}

func TestShopInfoPrompt(t *testing.T) {
	assert.Equal(t, "Tolong tuliskan informasi lengkap toko: Jam Operasional, Alamat, dan Nomor Kontak.", ShopInfoPrompt())
}
