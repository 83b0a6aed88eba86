// Package estimator resolves fee-table rows for a set of filter selections
// and combines them into a cost-of-attendance estimate. Every function is a
// pure function of the dataset and the filter; nothing here keeps state.
package estimator

import "github.com/bher20/costcalc/internal/textnorm"

// Level is the academic level.
type Level string

const (
	LevelUndergraduate Level = "Undergraduate"
	LevelGraduate      Level = "Graduate"
)

// Housing selects which living-cost table applies.
type Housing string

const (
	HousingNone      Housing = "None"
	HousingOnCampus  Housing = "OnCampus"
	HousingOffCampus Housing = "OffCampus"
)

const (
	ResidencyDomestic      = "Domestic"
	ResidencyInternational = "International"

	ProvinceOntario       = "ON"
	ProvinceOutside       = "Non-ON"
	ProvinceInternational = "INT"

	// MealPlanNone opts out of a meal plan.
	MealPlanNone = "None"

	// SummerCredits is the graduate part-time row that carries the flat
	// summer-term rate.
	SummerCredits = "1.25"

	TermFall   = "Fall"
	TermWinter = "Winter"
)

// Filter is the set of selections made in the calculator form.
type Filter struct {
	Level             Level   `json:"level"`
	Residency         string  `json:"residency"`
	Province          string  `json:"province"`
	Load              string  `json:"load"`
	CohortYear        string  `json:"cohort_year"`
	Credits           string  `json:"credits"`
	Program           string  `json:"program"`
	Major             string  `json:"major"`
	Housing           Housing `json:"housing"`
	OnCampusRoom      string  `json:"oncampus_room"`
	OnCampusResidence string  `json:"oncampus_residence"`
	OffCampusRoom     string  `json:"offcampus_room"`
	MealPlan          string  `json:"meal_plan"`
	IncludeSummer     bool    `json:"include_summer"`
}

// Graduate reports whether the filter targets graduate fees. An empty level
// means undergraduate.
func (f Filter) Graduate() bool {
	return Level(textnorm.Clean(string(f.Level))) == LevelGraduate
}

// PartTime reports whether the load normalizes to part-time.
func (f Filter) PartTime() bool { return textnorm.IsPartTime(f.Load) }

// clean trims every text selection.
func (f Filter) clean() Filter {
	f.Level = Level(textnorm.Clean(string(f.Level)))
	if f.Level == "" {
		f.Level = LevelUndergraduate
	}
	f.Residency = textnorm.Clean(f.Residency)
	f.Province = textnorm.Clean(f.Province)
	f.Load = textnorm.Clean(f.Load)
	f.CohortYear = textnorm.Clean(f.CohortYear)
	f.Credits = textnorm.Clean(f.Credits)
	f.Program = textnorm.Clean(f.Program)
	f.Major = textnorm.Clean(f.Major)
	f.Housing = Housing(textnorm.Clean(string(f.Housing)))
	f.OnCampusRoom = textnorm.Clean(f.OnCampusRoom)
	f.OnCampusResidence = textnorm.Clean(f.OnCampusResidence)
	f.OffCampusRoom = textnorm.Clean(f.OffCampusRoom)
	f.MealPlan = textnorm.Clean(f.MealPlan)
	return f
}
