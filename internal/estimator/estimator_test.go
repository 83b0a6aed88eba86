package estimator

import (
	"reflect"
	"testing"

	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/money"
)

func fixture() *dataset.Dataset {
	return dataset.New(map[string][]dataset.Row{
		dataset.TableUndergradFullTime: {
			{"Program": "Computer Science", "Major": "General", "Residency": "Domestic", "Province": "ON", "Load": "Full-Time", "CohortYear": "2024-2025", "FallTotal": "$3,500.00", "WinterTotal": "$3,500.00", "FallWinterTotal": "$7,000.00"},
			{"Program": "Computer Science", "Major": "General", "Residency": "Domestic", "Province": "ON", "Load": "Full-Time", "CohortYear": "2024-2025", "FallWinterTotal": "$9,999.00"},
			{"Program": "Computer Science", "Major": "AI", "Residency": "Domestic", "Province": "ON", "Load": "Full-time", "CohortYear": "2024-2025", "FallWinterTotal": "$8,000.00"},
			{"Program": "Biology", "Major": "General", "Residency": "Domestic", "Province": "Non-ON", "Load": "Full-Time", "CohortYear": "2024-2025", "FallTotal": "$4,000.00", "WinterTotal": "$4,100.00", "FallWinterTotal": ""},
			{"Program": "History", "Major": "General", "Residency": "Domestic", "Province": "ON", "Load": "Full-Time", "CohortYear": "2024-2025", "FallTotal": "$3,000.00", "WinterTotal": "N/A", "FallWinterTotal": "N/A"},
			{"Program": "Art", "Major": "Studio", "Residency": "International", "Province": "INT", "Load": "Full-Time", "CohortYear": "2024-2025", "FallWinterTotal": "$30,000.00"},
		},
		dataset.TableUndergradPartTime: {
			{"Program": "Computer Science", "Residency": "Domestic", "Province": "ON", "Load": "Part Time", "CohortYear": "2024 - 2025", "Credits": 0.5, "FallWinterTotal": "$1,750.00"},
		},
		dataset.TableGraduateFullTime: {
			{"Program": "MBA", "Residency": "Domestic", "Load": "Full-time", "CohortYear": "2024-2025", "FallTotal": "$2,000", "WinterTotal": "$2,000", "SummerTotal": "$2,000", "FallWinterTotal": "$4,000"},
		},
		dataset.TableGraduatePartTime: {
			{"Program": "MBA", "Residency": "Domestic", "Load": "Part-time", "CohortYear": "2024–2025", "Credits": "0.5", "FallTotal": "$1,000", "WinterTotal": "$1,000", "SummerTotal": "N/A", "FallWinterTotal": "$2,000"},
			{"Program": "MBA", "Residency": "Domestic", "Load": "Part-time", "CohortYear": "2024–2025", "Credits": "1.25", "FallTotal": "$2,500", "WinterTotal": "$2,500", "SummerTotal": "$2,900", "FallWinterTotal": "$5,000"},
			{"Program": "MEng", "Residency": "Domestic", "Load": "Part-time", "CohortYear": "2024–2025", "Credits": "0.5", "FallWinterTotal": "$2,200"},
		},
		dataset.TableOnCampusLiving: {
			{"RoomType": "Single Room", "ResidenceArea": " north ", "Fall Term": "$4,000", "Winter Term": "$4,000", "Cost": "$8,000"},
			{"RoomType": "Double", "ResidenceArea": "South", "Fall Term": "$3,000", "Winter Term": "$3,000", "Cost": "N/A"},
			{"RoomType": "Suite", "ResidenceArea": "East", "Fall Term": "N/A", "Winter Term": "$5,000", "Cost": "N/A"},
		},
		dataset.TableOffCampusLiving: {
			{" RoomType ": "Shared apartment", "Term ": "Fall", " TotalTermCost": "$4,200.00"},
			{"RoomType": "Studio", "Term": "Fall", "TotalTermCost": "$5,000.00"},
			{"RoomType": "Studio", "Term": "Winter", "TotalTermCost": "$5,100.00"},
			{"RoomType": "Loft", "Term": "Fall", "TotalTermCost": "N/A"},
		},
		dataset.TableMealPlan: {
			{"Meal Plan Size": "Light", "Total cost per year": "$3,045.46"},
			{"Meal Plan Size": "Premium", "Total cost per year": "N/A"},
		},
	})
}

func undergradCS() Filter {
	return Filter{
		Level:      LevelUndergraduate,
		Residency:  ResidencyDomestic,
		Province:   ProvinceOntario,
		Load:       "Full-Time",
		CohortYear: "2024-2025",
		Program:    "Computer Science",
		Major:      "General",
		Housing:    HousingNone,
		MealPlan:   MealPlanNone,
	}
}

func gradMBA(load string) Filter {
	return Filter{
		Level:      LevelGraduate,
		Residency:  ResidencyDomestic,
		Load:       load,
		CohortYear: "2024-2025",
		Program:    "MBA",
		Housing:    HousingNone,
		MealPlan:   MealPlanNone,
	}
}

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m := money.Parse(s)
	if !m.Available() {
		t.Fatalf("bad fixture amount %q", s)
	}
	return m
}

type wantLine struct {
	label   string
	display string
}

func checkLines(t *testing.T, got []Line, want []wantLine) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Label != w.label {
			t.Errorf("line %d: expected label %q, got %q", i, w.label, got[i].Label)
		}
		if d := money.Format(got[i].Amount); d != w.display {
			t.Errorf("line %d (%s): expected %s, got %s", i, w.label, w.display, d)
		}
	}
}

func TestCompute_UndergradFullTime(t *testing.T) {
	est := Compute(fixture(), undergradCS())

	if !est.Matched {
		t.Fatalf("expected a tuition match")
	}
	if est.Table != UndergradFullTime {
		t.Errorf("unexpected table: %v", est.Table)
	}
	checkLines(t, est.Lines, []wantLine{
		{"Tuition & fees (Fall+Winter)", "$7,000.00"},
		{"Living (Fall)", "$0.00"},
		{"Living (Winter)", "$0.00"},
		{"Living (Total)", "$0.00"},
		{"Meal plan (Total)", "$0.00"},
	})
	if got := money.Format(est.GrandTotal); got != "$7,000.00" {
		t.Errorf("unexpected grand total: %s", got)
	}
}

func TestCompute_FirstRowWins(t *testing.T) {
	est := Compute(fixture(), undergradCS())
	if !est.Tuition.Equal(mustMoney(t, "7000")) {
		t.Errorf("expected first matching row, got %s", est.Tuition)
	}
}

func TestCompute_FullTimeLoadIsExact(t *testing.T) {
	f := undergradCS()
	f.Load = "full time"

	est := Compute(fixture(), f)
	if est.Matched {
		t.Fatalf("expected no match for inexact full-time load, got %+v", est.Lines)
	}

	f.Major = "AI"
	f.Load = "Full-time"
	est = Compute(fixture(), f)
	if !est.Matched || !est.Tuition.Equal(mustMoney(t, "8000")) {
		t.Errorf("expected the Full-time AI row, got %s", est.Tuition)
	}
}

func TestCompute_UndergradPartTime(t *testing.T) {
	f := undergradCS()
	f.Load = "part-time"
	f.Credits = "0.5"
	f.Major = "ignored"
	f.CohortYear = "2024-2025"

	est := Compute(fixture(), f)
	if est.Table != UndergradPartTime {
		t.Fatalf("unexpected table: %v", est.Table)
	}
	checkLines(t, est.Lines[:1], []wantLine{
		{"Tuition & fees (Fall+Winter) - 0.5 credits", "$1,750.00"},
	})
	if got := money.Format(est.GrandTotal); got != "$1,750.00" {
		t.Errorf("unexpected grand total: %s", got)
	}
}

func TestCompute_FallWinterFallback(t *testing.T) {
	f := undergradCS()
	f.Province = ProvinceOutside
	f.Program = "Biology"

	est := Compute(fixture(), f)
	if got := money.Format(est.Tuition); got != "$8,100.00" {
		t.Errorf("expected Fall+Winter fallback, got %s", got)
	}
}

func TestCompute_UnavailableTuition(t *testing.T) {
	f := undergradCS()
	f.Program = "History"
	f.MealPlan = "Light"

	est := Compute(fixture(), f)
	if !est.Matched {
		t.Fatalf("expected a match")
	}
	if got := money.Format(est.Lines[0].Amount); got != money.NotAvailable {
		t.Errorf("expected N/A tuition line, got %s", got)
	}
	if got := money.Format(est.GrandTotal); got != "$3,045.46" {
		t.Errorf("expected unavailable tuition to count as zero, got %s", got)
	}
}

func TestCompute_NoMatch(t *testing.T) {
	f := undergradCS()
	f.Program = "Astronomy"
	f.Housing = HousingOffCampus
	f.OffCampusRoom = "Studio"

	est := Compute(fixture(), f)
	if est.Matched {
		t.Fatalf("expected no match")
	}
	checkLines(t, est.Lines, []wantLine{{NoMatchLabel, money.NotAvailable}})
	if est.GrandTotal.Available() {
		t.Errorf("expected unavailable grand total, got %s", est.GrandTotal)
	}
}

func TestCompute_GraduatePartTimeSummer(t *testing.T) {
	f := gradMBA("Part-time")
	f.Credits = "0.5"
	f.CohortYear = "2024 — 2025"

	est := Compute(fixture(), f)
	checkLines(t, est.Lines[:4], []wantLine{
		{"Tuition & fees (Fall)", "$1,000.00"},
		{"Tuition & fees (Winter)", "$1,000.00"},
		{"Tuition & fees (Summer)", "$0.00"},
		{"Tuition & fees (Total)", "$2,000.00"},
	})

	f.IncludeSummer = true
	est = Compute(fixture(), f)
	checkLines(t, est.Lines[:4], []wantLine{
		{"Tuition & fees (Fall)", "$1,000.00"},
		{"Tuition & fees (Winter)", "$1,000.00"},
		{"Tuition & fees (Summer)", "$2,900.00"},
		{"Tuition & fees (Total)", "$4,900.00"},
	})
	if got := money.Format(est.GrandTotal); got != "$4,900.00" {
		t.Errorf("unexpected grand total: %s", got)
	}
}

func TestCompute_GraduatePartTimeSummerMissing(t *testing.T) {
	f := gradMBA("Part-time")
	f.Program = "MEng"
	f.Credits = "0.5"
	f.IncludeSummer = true

	est := Compute(fixture(), f)
	if got := money.Format(est.Lines[2].Amount); got != money.NotAvailable {
		t.Errorf("expected N/A summer line, got %s", got)
	}
	if got := money.Format(est.GrandTotal); got != "$2,200.00" {
		t.Errorf("unexpected grand total: %s", got)
	}
}

func TestCompute_GraduateFullTimeSummer(t *testing.T) {
	f := gradMBA("full time")
	f.Province = "ignored"
	f.IncludeSummer = true

	est := Compute(fixture(), f)
	if est.Table != GraduateFullTime {
		t.Fatalf("unexpected table: %v", est.Table)
	}
	if got := money.Format(est.Tuition); got != "$6,000.00" {
		t.Errorf("unexpected tuition: %s", got)
	}
}

func TestResolveLiving_OnCampus(t *testing.T) {
	ds := fixture()
	f := undergradCS()
	f.Housing = HousingOnCampus

	cases := []struct {
		room, res string
		fall      string
		total     string
	}{
		{"Single Room", "North", "$4,000.00", "$8,000.00"},
		{"Double", "south", "$3,000.00", "$6,000.00"},
		{"Suite", "EAST", "$0.00", "$0.00"},
		{"Single Room", "South", "$0.00", "$0.00"},
	}
	for _, tc := range cases {
		f.OnCampusRoom = tc.room
		f.OnCampusResidence = tc.res
		l := ResolveLiving(ds, f)
		if got := money.Format(l.Fall); got != tc.fall {
			t.Errorf("%s/%s: expected fall %s, got %s", tc.room, tc.res, tc.fall, got)
		}
		if got := money.Format(l.Total); got != tc.total {
			t.Errorf("%s/%s: expected total %s, got %s", tc.room, tc.res, tc.total, got)
		}
	}
}

func TestResolveLiving_OffCampus(t *testing.T) {
	ds := fixture()
	f := undergradCS()
	f.Housing = HousingOffCampus

	f.OffCampusRoom = "Shared apartment"
	l := ResolveLiving(ds, f)
	if money.Format(l.Fall) != "$4,200.00" || money.Format(l.Winter) != "$0.00" || money.Format(l.Total) != "$4,200.00" {
		t.Errorf("unexpected fall-only living: %+v", l)
	}

	f.OffCampusRoom = "Studio"
	l = ResolveLiving(ds, f)
	if got := money.Format(l.Total); got != "$10,100.00" {
		t.Errorf("unexpected studio total: %s", got)
	}

	f.OffCampusRoom = "Loft"
	l = ResolveLiving(ds, f)
	if got := money.Format(l.Total); got != "$0.00" {
		t.Errorf("expected unpriced term to cost nothing, got %s", got)
	}
}

func TestResolveMealPlan(t *testing.T) {
	ds := fixture()
	f := undergradCS()

	for name, want := range map[string]string{
		"":        "$0.00",
		"None":    "$0.00",
		"Light":   "$3,045.46",
		"Premium": money.NotAvailable,
		"Huge":    "$0.00",
	} {
		f.MealPlan = name
		if got := money.Format(ResolveMealPlan(ds, f)); got != want {
			t.Errorf("meal plan %q: expected %s, got %s", name, want, got)
		}
	}

	f.MealPlan = "Premium"
	est := Compute(ds, f)
	if got := money.Format(est.GrandTotal); got != "$7,000.00" {
		t.Errorf("expected unavailable meal plan to count as zero, got %s", got)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	ds := fixture()
	f := undergradCS()
	f.Housing = HousingOffCampus
	f.OffCampusRoom = "Studio"
	f.MealPlan = "Light"

	a, b := Compute(ds, f), Compute(ds, f)
	if len(a.Lines) != len(b.Lines) || !a.GrandTotal.Equal(b.GrandTotal) {
		t.Fatalf("expected identical estimates")
	}
	for i := range a.Lines {
		if a.Lines[i].Label != b.Lines[i].Label || !a.Lines[i].Amount.Equal(b.Lines[i].Amount) {
			t.Errorf("line %d differs: %+v vs %+v", i, a.Lines[i], b.Lines[i])
		}
	}
	if got := money.Format(a.GrandTotal); got != "$20,145.46" {
		t.Errorf("unexpected grand total: %s", got)
	}
}

func TestListPrograms(t *testing.T) {
	ds := fixture()

	got := ListPrograms(ds, undergradCS())
	want := []string{"Computer Science", "History"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = ListPrograms(ds, gradMBA("part time"))
	want = []string{"MBA", "MEng"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestListMajors(t *testing.T) {
	ds := fixture()

	if got := ListMajors(ds, undergradCS()); !reflect.DeepEqual(got, []string{"General"}) {
		t.Errorf("unexpected majors: %v", got)
	}
	if got := ListMajors(ds, gradMBA("Full-time")); len(got) != 0 {
		t.Errorf("expected no graduate majors, got %v", got)
	}
}

func TestListProvincesAndCredits(t *testing.T) {
	if got := ListProvinces(ResidencyInternational); !reflect.DeepEqual(got, []string{"INT"}) {
		t.Errorf("unexpected international provinces: %v", got)
	}
	if got := ListProvinces(ResidencyDomestic); !reflect.DeepEqual(got, []string{"ON", "Non-ON"}) {
		t.Errorf("unexpected domestic provinces: %v", got)
	}

	f := undergradCS()
	if got := ListCredits(f); got != nil {
		t.Errorf("expected no credits for full-time, got %v", got)
	}
	f.Load = "Part-Time"
	if got := ListCredits(f); len(got) != 7 || got[6] != "1.75" {
		t.Errorf("unexpected undergraduate credits: %v", got)
	}
	if got := ListCredits(gradMBA("Part-time")); !reflect.DeepEqual(got, []string{"0.25", "0.5", "0.75", "1"}) {
		t.Errorf("unexpected graduate credits: %v", got)
	}
}

func TestLivingOptions(t *testing.T) {
	ds := fixture()

	if got := ListRoomTypes(ds); !reflect.DeepEqual(got, []string{"Double", "Single Room"}) {
		t.Errorf("unexpected room types: %v", got)
	}
	if got := ListResidences(ds, "Single Room"); !reflect.DeepEqual(got, []string{"NORTH"}) {
		t.Errorf("unexpected residences: %v", got)
	}
	if got := ListOffCampusTypes(ds); !reflect.DeepEqual(got, []string{"Shared apartment", "Studio"}) {
		t.Errorf("unexpected off-campus types: %v", got)
	}

	plans := ListMealPlans(ds)
	if len(plans) != 3 || plans[0].Value != MealPlanNone {
		t.Fatalf("unexpected meal plans: %+v", plans)
	}
	if plans[1].Label != "Light ($3,045.46/yr)" {
		t.Errorf("unexpected meal plan label: %q", plans[1].Label)
	}
}

func TestControlsFor(t *testing.T) {
	c := ControlsFor(gradMBA("Part-time"))
	if !c.ProvinceLocked || !c.SummerVisible || !c.CreditsVisible || c.MajorEnabled {
		t.Errorf("unexpected graduate part-time controls: %+v", c)
	}
	if c.MajorPlaceholder != "N/A for Graduate" {
		t.Errorf("unexpected major placeholder: %q", c.MajorPlaceholder)
	}
	if c.Province != ProvinceOntario {
		t.Errorf("expected default province ON, got %q", c.Province)
	}

	f := undergradCS()
	f.Residency = ResidencyInternational
	c = ControlsFor(f)
	if c.Province != ProvinceInternational || c.ProvinceLocked || !c.MajorEnabled {
		t.Errorf("unexpected international controls: %+v", c)
	}
	if c.CreditsHint != "Full-time is 2.00+ credits (no selection needed)." {
		t.Errorf("unexpected credits hint: %q", c.CreditsHint)
	}
}
