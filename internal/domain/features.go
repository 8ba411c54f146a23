package domain

// FeatureVector is the fixed-shape numeric summary of one text. It is the
// sole interface between entity extraction and classification; the
// classifier never sees raw text or spans. Field order in FeatureSchema and
// Values must stay in lockstep: trained model artifacts embed the schema
// and are rejected when it no longer matches.
type FeatureVector struct {
	PersonCount           int     `json:"num_persons"`
	EmailCount            int     `json:"num_emails"`
	PhoneCount            int     `json:"num_phones"`
	LocationCount         int     `json:"num_locations"`
	OrganizationCount     int     `json:"num_organizations"`
	DateCount             int     `json:"num_dates"`
	GovernmentIDCount     int     `json:"num_government_ids"`
	FinancialAccountCount int     `json:"num_financial_accounts"`
	OtherCount            int     `json:"num_other"`
	TextLength            int     `json:"text_length"`
	WordCount             int     `json:"word_count"`
	EntityDensity         float64 `json:"entity_density"`
	SensitiveKeywordCount int     `json:"sensitive_keyword_count"`
}

// FeatureSchema lists feature names in canonical order.
func FeatureSchema() []string {
	return []string{
		"num_persons",
		"num_emails",
		"num_phones",
		"num_locations",
		"num_organizations",
		"num_dates",
		"num_government_ids",
		"num_financial_accounts",
		"num_other",
		"text_length",
		"word_count",
		"entity_density",
		"sensitive_keyword_count",
	}
}

// Values returns the vector in FeatureSchema order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		float64(f.PersonCount),
		float64(f.EmailCount),
		float64(f.PhoneCount),
		float64(f.LocationCount),
		float64(f.OrganizationCount),
		float64(f.DateCount),
		float64(f.GovernmentIDCount),
		float64(f.FinancialAccountCount),
		float64(f.OtherCount),
		float64(f.TextLength),
		float64(f.WordCount),
		f.EntityDensity,
		float64(f.SensitiveKeywordCount),
	}
}

// KindCountSum adds up all per-kind entity counts.
func (f FeatureVector) KindCountSum() int {
	return f.PersonCount + f.EmailCount + f.PhoneCount + f.LocationCount +
		f.OrganizationCount + f.DateCount + f.GovernmentIDCount +
		f.FinancialAccountCount + f.OtherCount
}
