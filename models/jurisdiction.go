package models

// ExhibitLabelFormat selects how exhibit labels are generated
type ExhibitLabelFormat string

const (
	LabelAlphabetical ExhibitLabelFormat = "alphabetical"
	LabelNumerical    ExhibitLabelFormat = "numerical"
)

// BookConfig is the per-jurisdiction structural policy for an assembled
// Book of Documents. Looked up by province code through the jurisdiction
// registry; unknown provinces fall back to the default entry.
type BookConfig struct {
	Province              string             `json:"province"`
	TribunalName          string             `json:"tribunal_name"`
	RequiresIndex         bool               `json:"requires_index"`
	PageNumberStyle       string             `json:"page_number_style"`
	ChronologicalRequired bool               `json:"chronological_required"`
	MaxPagesPerBook       int                `json:"max_pages_per_book"`
	ExhibitLabelFormat    ExhibitLabelFormat `json:"exhibit_label_format"`
	RequiredSections      []string           `json:"required_sections"`
	RequiresCoverPage     bool               `json:"requires_cover_page"`
	RequiresCertification bool               `json:"requires_certification"`
	RequiresKeyFacts      bool               `json:"requires_key_facts"`
}
