package domain

// CompanyProfile is the persisted company identity used to ground responses.
// JSON tags match the on-disk profile document.
type CompanyProfile struct {
	CompanyName      string `json:"company_name"`
	ShortDescription string `json:"short_description"`
	Services         string `json:"services"`
	Summary          string `json:"summary"`
}
