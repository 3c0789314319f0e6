package advice

import (
	"reflect"
	"testing"

	"github.com/hyperjump/vaxguide/internal/config"
	"github.com/hyperjump/vaxguide/internal/models"
)

func defaultRules() *Rules {
	return NewRules(config.Default().Advice)
}

func TestRules_Recommended(t *testing.T) {
	r := defaultRules()
	tests := []struct {
		age     int
		history []string
		want    []string
	}{
		{70, nil, []string{"Influenza"}},
		{65, nil, []string{}},
		{66, nil, []string{"Influenza"}},
		{17, nil, []string{"Hepatitis B"}},
		{18, nil, []string{}},
		{0, nil, []string{"Hepatitis B"}},
		{40, nil, []string{}},
		{10, []string{"Measles"}, []string{"Hepatitis B"}},
	}
	for _, tt := range tests {
		got := r.Recommended(tt.age, tt.history)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Recommended(%d, %v) = %v, want %v", tt.age, tt.history, got, tt.want)
		}
	}
}

func TestRules_SpecificAdvice(t *testing.T) {
	r := defaultRules()
	got := r.SpecificAdvice("2025-06-01")
	want := []string{"Based on your travel date (2025-06-01), make sure to get any required vaccinations at least 2 weeks before departure."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SpecificAdvice = %v", got)
	}
}

// Already-taken vaccines are dropped even when the age rule fires.
func TestRules_Recommended_skipsVaccinesInHistory(t *testing.T) {
	r := defaultRules()
	tests := []struct {
		age     int
		history []string
		want    []string
	}{
		{80, []string{" influenza "}, []string{}},
		{80, []string{"INFLUENZA"}, []string{}},
		{12, []string{"hepatitis b", "Typhoid"}, []string{}},
		{80, []string{"Hepatitis B"}, []string{"Influenza"}},
	}
	for _, tt := range tests {
		got := r.Recommended(tt.age, tt.history)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Recommended(%d, %v) = %v, want %v", tt.age, tt.history, got, tt.want)
		}
	}
}

// No travel date means no reminder sentence, not one with an empty date.
func TestRules_SpecificAdvice_blankDateGivesNoAdvice(t *testing.T) {
	r := defaultRules()
	for _, date := range []string{"", "  ", "\t"} {
		got := r.SpecificAdvice(date)
		if got == nil || len(got) != 0 {
			t.Errorf("SpecificAdvice(%q) = %#v, want empty non-nil slice", date, got)
		}
	}
}

func TestRules_Compose(t *testing.T) {
	r := defaultRules()
	req := &models.VaccinationRequest{
		DestinationCountry: "Brazil",
		Age:                70,
		TravelDate:         "2025-06-01",
	}
	resp := r.Compose(req, []string{"first answer", "second answer"})
	if resp.Country != "Brazil" {
		t.Errorf("Country = %q", resp.Country)
	}
	if !reflect.DeepEqual(resp.RequiredVaccinations, []string{"first answer", "second answer"}) {
		t.Errorf("RequiredVaccinations = %v", resp.RequiredVaccinations)
	}
	if !reflect.DeepEqual(resp.RecommendedVaccinations, []string{"Influenza"}) {
		t.Errorf("RecommendedVaccinations = %v", resp.RecommendedVaccinations)
	}
	wantNotes := []string{
		"Check with your healthcare provider for personalized recommendations",
		"Travel insurance is recommended for medical emergencies",
	}
	if !reflect.DeepEqual(resp.AdditionalNotes, wantNotes) {
		t.Errorf("AdditionalNotes = %v", resp.AdditionalNotes)
	}
	resp.AdditionalNotes[0] = "mutated"
	if defaultRules().Notes()[0] == "mutated" || r.Notes()[0] == "mutated" {
		t.Error("Compose exposed the configured notes slice")
	}
}
