package estimator

import (
	"fmt"
	"sort"

	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/money"
	"github.com/bher20/costcalc/internal/textnorm"
)

var (
	undergradCredits = []string{"0.25", "0.5", "0.75", "1", "1.25", "1.5", "1.75"}
	graduateCredits  = []string{"0.25", "0.5", "0.75", "1"}
)

const (
	creditsHintGraduate = "Graduate part-time credits apply to Fall/Winter. Summer uses the 1.25-credit rate (if included)."
	creditsHintFullTime = "Full-time is 2.00+ credits (no selection needed)."

	majorPlaceholderGraduate = "N/A for Graduate"
	majorPlaceholderPartTime = "N/A for part-time"
)

func sortedUnique(in []string) []string {
	out := textnorm.Unique(in)
	sort.Strings(out)
	return out
}

// ListPrograms returns the sorted distinct programs of the rows matching
// the upstream facets of f.
func ListPrograms(ds *dataset.Dataset, f Filter) []string {
	var names []string
	for _, r := range FilterTuitionRows(ds, f) {
		names = append(names, r.Program)
	}
	return sortedUnique(names)
}

// ListMajors returns the sorted majors offered for f.Program. Only the
// undergraduate full-time table carries majors; every other filter yields
// an empty list.
func ListMajors(ds *dataset.Dataset, f Filter) []string {
	f = f.clean()
	if SelectTable(f) != UndergradFullTime {
		return nil
	}
	var majors []string
	for _, r := range FilterTuitionRows(ds, f) {
		if r.Program == f.Program {
			majors = append(majors, r.Major)
		}
	}
	return sortedUnique(majors)
}

// ListCohorts returns the sorted distinct cohort years found in the tuition
// table selected by f.
func ListCohorts(ds *dataset.Dataset, f Filter) []string {
	var cohorts []string
	for _, r := range TuitionRows(ds, f) {
		cohorts = append(cohorts, r.CohortYear)
	}
	return sortedUnique(cohorts)
}

// ListProvinces returns the province choices for a residency.
func ListProvinces(residency string) []string {
	if textnorm.Clean(residency) == ResidencyInternational {
		return []string{ProvinceInternational}
	}
	return []string{ProvinceOntario, ProvinceOutside}
}

// ListCredits returns the credit choices for a part-time filter, or nil for
// full-time filters.
func ListCredits(f Filter) []string {
	if !f.PartTime() {
		return nil
	}
	src := undergradCredits
	if f.Graduate() {
		src = graduateCredits
	}
	return append([]string(nil), src...)
}

// ListRoomTypes returns the sorted on-campus room types.
func ListRoomTypes(ds *dataset.Dataset) []string {
	var rooms []string
	for _, r := range OnCampusRows(ds) {
		rooms = append(rooms, r.Room)
	}
	return sortedUnique(rooms)
}

// ListResidences returns the sorted residence tokens offering room.
func ListResidences(ds *dataset.Dataset, room string) []string {
	room = textnorm.Clean(room)
	var res []string
	for _, r := range OnCampusRows(ds) {
		if r.Room == room {
			res = append(res, r.Residence)
		}
	}
	return sortedUnique(res)
}

// ListOffCampusTypes returns the sorted off-campus room types that have at
// least one priced term.
func ListOffCampusTypes(ds *dataset.Dataset) []string {
	var rooms []string
	for _, r := range OffCampusRows(ds) {
		if r.Total.Available() {
			rooms = append(rooms, r.Room)
		}
	}
	return sortedUnique(rooms)
}

// MealPlanOption is a selectable meal plan. The first option is always
// MealPlanNone.
type MealPlanOption struct {
	Value string      `json:"value"`
	Label string      `json:"label"`
	Total money.Money `json:"total"`
}

// ListMealPlans returns MealPlanNone followed by the meal plans in table
// order, labelled with their yearly cost.
func ListMealPlans(ds *dataset.Dataset) []MealPlanOption {
	out := []MealPlanOption{{Value: MealPlanNone, Label: MealPlanNone, Total: money.Zero()}}
	for _, r := range MealPlanRows(ds) {
		out = append(out, MealPlanOption{
			Value: r.Name,
			Label: fmt.Sprintf("%s (%s/yr)", r.Name, money.Format(r.Total)),
			Total: r.Total,
		})
	}
	return out
}

// Controls describes which form inputs apply to a filter.
type Controls struct {
	Province         string `json:"province"`
	ProvinceLocked   bool   `json:"province_locked"`
	MajorEnabled     bool   `json:"major_enabled"`
	MajorPlaceholder string `json:"major_placeholder,omitempty"`
	CreditsVisible   bool   `json:"credits_visible"`
	CreditsHint      string `json:"credits_hint"`
	SummerVisible    bool   `json:"summer_visible"`
	OnCampusVisible  bool   `json:"oncampus_visible"`
	OffCampusVisible bool   `json:"offcampus_visible"`
}

// ControlsFor derives the input state for f. Province is forced to INT for
// international students and defaults to ON otherwise.
func ControlsFor(f Filter) Controls {
	f = f.clean()
	c := Controls{
		ProvinceLocked:   f.Graduate(),
		CreditsVisible:   f.PartTime(),
		SummerVisible:    f.Graduate(),
		OnCampusVisible:  f.Housing == HousingOnCampus,
		OffCampusVisible: f.Housing == HousingOffCampus,
	}

	switch {
	case f.Residency == ResidencyInternational:
		c.Province = ProvinceInternational
	case f.Province == ProvinceOntario || f.Province == ProvinceOutside:
		c.Province = f.Province
	default:
		c.Province = ProvinceOntario
	}

	switch {
	case f.Graduate():
		c.MajorPlaceholder = majorPlaceholderGraduate
	case f.PartTime():
		c.MajorPlaceholder = majorPlaceholderPartTime
	default:
		c.MajorEnabled = true
	}

	switch {
	case f.Graduate() && f.PartTime():
		c.CreditsHint = creditsHintGraduate
	case !f.PartTime():
		c.CreditsHint = creditsHintFullTime
	}
	return c
}

// Options is every option list for f in one value.
type Options struct {
	Programs   []string         `json:"programs"`
	Majors     []string         `json:"majors"`
	Cohorts    []string         `json:"cohorts"`
	Provinces  []string         `json:"provinces"`
	Credits    []string         `json:"credits"`
	Rooms      []string         `json:"rooms"`
	Residences []string         `json:"residences"`
	OffCampus  []string         `json:"offcampus"`
	MealPlans  []MealPlanOption `json:"mealplans"`
	Controls   Controls         `json:"controls"`
}

// AllOptions collects every option list for f.
func AllOptions(ds *dataset.Dataset, f Filter) Options {
	return Options{
		Programs:   ListPrograms(ds, f),
		Majors:     ListMajors(ds, f),
		Cohorts:    ListCohorts(ds, f),
		Provinces:  ListProvinces(f.Residency),
		Credits:    ListCredits(f),
		Rooms:      ListRoomTypes(ds),
		Residences: ListResidences(ds, f.OnCampusRoom),
		OffCampus:  ListOffCampusTypes(ds),
		MealPlans:  ListMealPlans(ds),
		Controls:   ControlsFor(f),
	}
}
