package jurisdiction

import (
	"sort"
	"strings"

	"casebook-backend/models"
)

// Registry resolves the structural book policy for a province. Injectable
// so deployments can swap or extend jurisdictions without recompiling the
// assembler or the compliance checker.
type Registry interface {
	// Lookup returns the BookConfig for a province code. Unknown codes
	// resolve to the default configuration.
	Lookup(province string) models.BookConfig

	// Provinces lists the explicitly configured province codes.
	Provinces() []string
}

// DefaultProvince is the registry key of the fallback configuration.
const DefaultProvince = "default"

// mapRegistry is the default in-memory Registry implementation.
type mapRegistry struct {
	configs map[string]models.BookConfig
}

// NewRegistry returns a Registry seeded with the built-in jurisdiction
// configurations plus the default fallback entry.
func NewRegistry() Registry {
	return &mapRegistry{configs: builtinConfigs()}
}

// NewRegistryWith returns a Registry over the given configurations keyed
// by province code. A "default" entry is added if missing.
func NewRegistryWith(configs map[string]models.BookConfig) Registry {
	merged := make(map[string]models.BookConfig, len(configs)+1)
	for code, cfg := range configs {
		if code == DefaultProvince {
			merged[code] = cfg
			continue
		}
		merged[strings.ToUpper(code)] = cfg
	}
	if _, ok := merged[DefaultProvince]; !ok {
		merged[DefaultProvince] = builtinConfigs()[DefaultProvince]
	}
	return &mapRegistry{configs: merged}
}

func (r *mapRegistry) Lookup(province string) models.BookConfig {
	key := strings.ToUpper(strings.TrimSpace(province))
	if cfg, ok := r.configs[key]; ok {
		return cfg
	}
	if cfg, ok := r.configs[DefaultProvince]; ok {
		return cfg
	}
	return builtinConfigs()[DefaultProvince]
}

func (r *mapRegistry) Provinces() []string {
	codes := make([]string, 0, len(r.configs))
	for code := range r.configs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Section names used in RequiredSections, in their required order.
const (
	SectionCover         = "cover_page"
	SectionIndex         = "index"
	SectionKeyFacts      = "key_facts"
	SectionExhibits      = "exhibits"
	SectionCertification = "certification"
)

func builtinConfigs() map[string]models.BookConfig {
	return map[string]models.BookConfig{
		"ON": {
			Province:              "ON",
			TribunalName:          "Landlord and Tenant Board",
			RequiresIndex:         true,
			PageNumberStyle:       "bottom_center",
			ChronologicalRequired: true,
			MaxPagesPerBook:       300,
			ExhibitLabelFormat:    models.LabelAlphabetical,
			RequiredSections:      []string{SectionCover, SectionIndex, SectionExhibits, SectionCertification},
			RequiresCoverPage:     true,
			RequiresCertification: true,
			RequiresKeyFacts:      false,
		},
		"BC": {
			Province:              "BC",
			TribunalName:          "Civil Resolution Tribunal",
			RequiresIndex:         true,
			PageNumberStyle:       "bottom_right",
			ChronologicalRequired: true,
			MaxPagesPerBook:       200,
			ExhibitLabelFormat:    models.LabelNumerical,
			RequiredSections:      []string{SectionCover, SectionIndex, SectionKeyFacts, SectionExhibits},
			RequiresCoverPage:     true,
			RequiresCertification: false,
			RequiresKeyFacts:      true,
		},
		"AB": {
			Province:              "AB",
			TribunalName:          "Residential Tenancy Dispute Resolution Service",
			RequiresIndex:         true,
			PageNumberStyle:       "bottom_center",
			ChronologicalRequired: false,
			MaxPagesPerBook:       250,
			ExhibitLabelFormat:    models.LabelAlphabetical,
			RequiredSections:      []string{SectionCover, SectionIndex, SectionExhibits},
			RequiresCoverPage:     true,
			RequiresCertification: false,
			RequiresKeyFacts:      false,
		},
		"QC": {
			Province:              "QC",
			TribunalName:          "Tribunal administratif du logement",
			RequiresIndex:         true,
			PageNumberStyle:       "bottom_center",
			ChronologicalRequired: true,
			MaxPagesPerBook:       250,
			ExhibitLabelFormat:    models.LabelNumerical,
			RequiredSections:      []string{SectionCover, SectionIndex, SectionExhibits, SectionCertification},
			RequiresCoverPage:     true,
			RequiresCertification: true,
			RequiresKeyFacts:      false,
		},
		DefaultProvince: {
			Province:              DefaultProvince,
			TribunalName:          "Tribunal",
			RequiresIndex:         true,
			PageNumberStyle:       "bottom_center",
			ChronologicalRequired: true,
			MaxPagesPerBook:       250,
			ExhibitLabelFormat:    models.LabelAlphabetical,
			RequiredSections:      []string{SectionCover, SectionIndex, SectionExhibits},
			RequiresCoverPage:     true,
			RequiresCertification: false,
			RequiresKeyFacts:      false,
		},
	}
}
