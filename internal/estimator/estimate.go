package estimator

import (
	"fmt"

	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/money"
)

// NoMatchLabel is the single breakdown line reported when no tuition row
// matches the filter.
const NoMatchLabel = "No matching tuition row for the selected filters"

// Line is one labelled amount of the breakdown.
type Line struct {
	Label  string      `json:"label"`
	Amount money.Money `json:"amount"`
}

// Estimate is the result of Compute. Lines is a diagnostic ledger: a line
// may show an unavailable amount that GrandTotal counted as 0.
type Estimate struct {
	Table      Table       `json:"table"`
	Matched    bool        `json:"matched"`
	Lines      []Line      `json:"lines"`
	Tuition    money.Money `json:"tuition"`
	Living     Living      `json:"living"`
	MealPlan   money.Money `json:"meal_plan"`
	GrandTotal money.Money `json:"grand_total"`
}

// Compute produces the breakdown and grand total for f. It is a pure
// function: the same dataset and filter always give the same estimate.
func Compute(ds *dataset.Dataset, f Filter) Estimate {
	f = f.clean()
	m := ResolveTuition(ds, f)
	est := Estimate{Table: m.Table}

	if !m.Found() {
		est.Tuition = money.Unavailable()
		est.MealPlan = money.Unavailable()
		est.Living = Living{Fall: money.Unavailable(), Winter: money.Unavailable(), Total: money.Unavailable()}
		est.GrandTotal = money.Unavailable()
		est.Lines = []Line{{Label: NoMatchLabel, Amount: money.Unavailable()}}
		return est
	}

	est.Matched = true
	row := *m.Row
	fw := fallWinter(row)

	switch m.Table {
	case GraduateFullTime, GraduatePartTime:
		summer := row.Summer
		if m.Table == GraduatePartTime {
			summer = money.Unavailable()
			if m.Summer != nil {
				summer = m.Summer.Summer
			}
		}
		summerLine := money.Zero()
		est.Tuition = fw
		if f.IncludeSummer {
			summerLine = summer
			est.Tuition = fw.Plus(summer)
		}
		est.Lines = append(est.Lines,
			Line{Label: "Tuition & fees (Fall)", Amount: row.Fall},
			Line{Label: "Tuition & fees (Winter)", Amount: row.Winter},
			Line{Label: "Tuition & fees (Summer)", Amount: summerLine},
			Line{Label: "Tuition & fees (Total)", Amount: est.Tuition},
		)
	case UndergradPartTime:
		est.Tuition = fw
		est.Lines = append(est.Lines, Line{
			Label:  fmt.Sprintf("Tuition & fees (Fall+Winter) - %s credits", f.Credits),
			Amount: fw,
		})
	default:
		est.Tuition = fw
		est.Lines = append(est.Lines, Line{Label: "Tuition & fees (Fall+Winter)", Amount: fw})
	}

	est.Living = ResolveLiving(ds, f)
	est.MealPlan = ResolveMealPlan(ds, f)
	est.Lines = append(est.Lines,
		Line{Label: "Living (Fall)", Amount: est.Living.Fall},
		Line{Label: "Living (Winter)", Amount: est.Living.Winter},
		Line{Label: "Living (Total)", Amount: est.Living.Total},
		Line{Label: "Meal plan (Total)", Amount: est.MealPlan},
	)

	est.GrandTotal = money.FromDecimal(
		est.Tuition.OrZero().Add(est.Living.Total.OrZero()).Add(est.MealPlan.OrZero()),
	)
	return est
}

// fallWinter is the authored Fall+Winter total, or Fall plus Winter when the
// total is unavailable and both terms are known. Otherwise it is unavailable.
func fallWinter(r TuitionRow) money.Money {
	if r.FallWinter.Available() {
		return r.FallWinter
	}
	if r.Fall.Available() && r.Winter.Available() {
		return r.Fall.Plus(r.Winter)
	}
	return money.Unavailable()
}
