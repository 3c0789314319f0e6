// Package advice applies the static travel rules that accompany generated answers.
package advice

import (
	"strings"

	"github.com/hyperjump/vaxguide/internal/config"
	"github.com/hyperjump/vaxguide/internal/models"
)

const travelDatePlaceholder = "{travel_date}"

// Rules builds the rule-based parts of a vaccination response.
type Rules struct {
	cfg config.AdviceConfig
}

// NewRules returns rules from cfg.
func NewRules(cfg config.AdviceConfig) *Rules {
	return &Rules{cfg: cfg}
}

// Recommended returns the age-rule vaccines that apply to age, in rule order,
// skipping any already listed in history. The history filter is intentional:
// a vaccine the traveler reports having is never recommended again, even
// though the age rule alone would list it.
func (r *Rules) Recommended(age int, history []string) []string {
	had := make(map[string]struct{}, len(history))
	for _, h := range history {
		had[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	out := []string{}
	for _, rule := range r.cfg.AgeRules {
		if !applies(rule, age) {
			continue
		}
		if _, ok := had[strings.ToLower(rule.Vaccine)]; ok {
			continue
		}
		out = append(out, rule.Vaccine)
	}
	return out
}

func applies(rule config.AgeRule, age int) bool {
	if rule.OlderThan > 0 && age > rule.OlderThan {
		return true
	}
	return rule.YoungerThan > 0 && age < rule.YoungerThan
}

// SpecificAdvice returns the travel date reminder, or nothing without a date.
// A blank date intentionally yields no sentence rather than one with an empty
// "()" in it.
func (r *Rules) SpecificAdvice(travelDate string) []string {
	travelDate = strings.TrimSpace(travelDate)
	if travelDate == "" || r.cfg.TravelDateAdvice == "" {
		return []string{}
	}
	return []string{strings.ReplaceAll(r.cfg.TravelDateAdvice, travelDatePlaceholder, travelDate)}
}

// Notes returns the fixed additional notes.
func (r *Rules) Notes() []string {
	return append([]string{}, r.cfg.Notes...)
}

// Compose assembles a response. answers are placed in required_vaccinations
// in the order given.
func (r *Rules) Compose(req *models.VaccinationRequest, answers []string) *models.VaccinationResponse {
	return &models.VaccinationResponse{
		Country:                 req.DestinationCountry,
		RequiredVaccinations:    append([]string{}, answers...),
		RecommendedVaccinations: r.Recommended(req.Age, req.VaccinationHistory),
		SpecificAdvice:          r.SpecificAdvice(req.TravelDate),
		AdditionalNotes:         r.Notes(),
	}
}
