package model

// Vendor is a catalog entry describing a solution provider. Owned by the
// vendor-management collaborator; read-only input to matching.
type Vendor struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Categories          []string      `json:"categories"` // risk-area category tags covered
	TargetSegments      []CompanySize `json:"target_segments"`
	Geographies         []string      `json:"geographies"` // jurisdictions, or "GLOBAL"
	PriceRange          CostRange     `json:"price_range"`
	Features            []string      `json:"features"`
	DeploymentModels    []string      `json:"deployment_models"`
	ImplementationWeeks int           `json:"implementation_weeks"`
	Rating              float64       `json:"rating"` // 0-5 marketplace rating
	ReviewCount         int           `json:"review_count"`
}

// Covers reports whether the vendor's categories include the given
// gap category (case-sensitive tags, matching the template registry).
func (v Vendor) Covers(category string) bool {
	for _, c := range v.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// CoversGeo reports whether the vendor serves the given jurisdiction.
// A "GLOBAL" entry covers everything.
func (v Vendor) CoversGeo(jurisdiction string) bool {
	for _, g := range v.Geographies {
		if g == "GLOBAL" || g == jurisdiction {
			return true
		}
	}
	return false
}

// HasFeature reports whether the vendor advertises the given feature.
func (v Vendor) HasFeature(feature string) bool {
	for _, f := range v.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// SupportsDeployment reports whether the vendor offers the given
// deployment model.
func (v Vendor) SupportsDeployment(model string) bool {
	for _, d := range v.DeploymentModels {
		if d == model {
			return true
		}
	}
	return false
}
