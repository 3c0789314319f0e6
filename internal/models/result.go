package models

// Answer is a generated answer and the context it was grounded on.
// Grounded is false when no context was retrieved and a canned reply was used.
type Answer struct {
	Question string   `json:"question"`
	Text     string   `json:"answer"`
	Context  []string `json:"context"`
	Grounded bool     `json:"grounded"`
}

// VaccinationResponse is the body returned by POST /vaccination-info.
type VaccinationResponse struct {
	Country                 string   `json:"country"`
	RequiredVaccinations    []string `json:"required_vaccinations"`
	RecommendedVaccinations []string `json:"recommended_vaccinations"`
	SpecificAdvice          []string `json:"specific_advice"`
	AdditionalNotes         []string `json:"additional_notes"`
}
