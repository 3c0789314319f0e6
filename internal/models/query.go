package models

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors for incoming requests.
var (
	ErrNoQuestions      = errors.New("at least one question is required")
	ErrTooManyQuestions = errors.New("too many questions")
	ErrNoDestination    = errors.New("destination_country is required")
	ErrInvalidAge       = errors.New("age must be between 0 and 150")
	ErrEmptyQuestion    = errors.New("question cannot be empty")
)

// VaccinationRequest is the body of POST /vaccination-info.
type VaccinationRequest struct {
	DestinationCountry string   `json:"destination_country"`
	Age                int      `json:"age"`
	VaccinationHistory []string `json:"vaccination_history"`
	SpecificQuestions  []string `json:"specific_questions"`
	TravelDate         string   `json:"travel_date"`
}

// Validate checks the request and trims its questions. Blank questions are
// dropped; a request left with none is rejected.
func (r *VaccinationRequest) Validate(maxQuestions int) error {
	r.DestinationCountry = strings.TrimSpace(r.DestinationCountry)
	if r.DestinationCountry == "" {
		return ErrNoDestination
	}
	if r.Age < 0 || r.Age > 150 {
		return ErrInvalidAge
	}
	questions := make([]string, 0, len(r.SpecificQuestions))
	for _, q := range r.SpecificQuestions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	if maxQuestions > 0 && len(questions) > maxQuestions {
		return fmt.Errorf("%w: got %d, at most %d allowed", ErrTooManyQuestions, len(questions), maxQuestions)
	}
	r.SpecificQuestions = questions
	r.TravelDate = strings.TrimSpace(r.TravelDate)
	return nil
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// Validate trims the question and rejects blank input.
func (r *AskRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return ErrEmptyQuestion
	}
	return nil
}
