package jurisdiction

import (
	"testing"

	"casebook-backend/models"
)

func TestLookupKnownProvince(t *testing.T) {
	r := NewRegistry()

	cfg := r.Lookup("ON")
	if cfg.TribunalName != "Landlord and Tenant Board" {
		t.Errorf("ON tribunal = %q", cfg.TribunalName)
	}
	if cfg.ExhibitLabelFormat != models.LabelAlphabetical {
		t.Errorf("ON label format = %s, want alphabetical", cfg.ExhibitLabelFormat)
	}

	if got := r.Lookup("BC").ExhibitLabelFormat; got != models.LabelNumerical {
		t.Errorf("BC label format = %s, want numerical", got)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	if r.Lookup("on").Province != "ON" {
		t.Error("lowercase province code should resolve to the ON config")
	}
	if r.Lookup(" qc ").Province != "QC" {
		t.Error("padded province code should resolve to the QC config")
	}
}

func TestLookupUnknownFallsBack(t *testing.T) {
	r := NewRegistry()

	cfg := r.Lookup("ZZ")
	if cfg.Province != DefaultProvince {
		t.Errorf("unknown province resolved to %q, want the default config", cfg.Province)
	}
	if cfg.MaxPagesPerBook == 0 {
		t.Error("default config should carry a page cap")
	}
}

func TestNewRegistryWith(t *testing.T) {
	custom := models.BookConfig{
		Province:        "yk",
		TribunalName:    "Yukon Residential Tenancies Office",
		MaxPagesPerBook: 100,
	}
	r := NewRegistryWith(map[string]models.BookConfig{"yk": custom})

	if got := r.Lookup("YK").TribunalName; got != custom.TribunalName {
		t.Errorf("custom lookup = %q, want %q", got, custom.TribunalName)
	}

	// The default entry is always present.
	if r.Lookup("ZZ").TribunalName == "" {
		t.Error("custom registry lost the default fallback")
	}
}

func TestProvincesSorted(t *testing.T) {
	provinces := NewRegistry().Provinces()
	if len(provinces) < 5 {
		t.Fatalf("expected at least 5 configured entries, got %d", len(provinces))
	}
	for i := 1; i < len(provinces); i++ {
		if provinces[i-1] > provinces[i] {
			t.Errorf("provinces not sorted: %q before %q", provinces[i-1], provinces[i])
		}
	}
}
