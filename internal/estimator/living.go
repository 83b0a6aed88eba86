package estimator

import (
	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/money"
	"github.com/bher20/costcalc/internal/textnorm"
)

// OnCampusRow is a residence room offering. Residence is the uppercased
// residence-area token.
type OnCampusRow struct {
	Room      string      `json:"room"`
	Residence string      `json:"residence"`
	Fall      money.Money `json:"fall"`
	Winter    money.Money `json:"winter"`
	Total     money.Money `json:"total"`
}

// OnCampusRows returns residence rows that name a room, a residence and a
// determinable total. When the authored Cost is unavailable the total falls
// back to Fall+Winter if both terms are known.
func OnCampusRows(ds *dataset.Dataset) []OnCampusRow {
	var out []OnCampusRow
	for _, r := range ds.Table(dataset.TableOnCampusLiving) {
		row := OnCampusRow{
			Room:      r.Text("RoomType"),
			Residence: textnorm.ResidenceToken(r.Text("ResidenceArea")),
			Fall:      money.Parse(value(r, "Fall Term")),
			Winter:    money.Parse(value(r, "Winter Term")),
			Total:     money.Parse(value(r, "Cost")),
		}
		if !row.Total.Available() && row.Fall.Available() && row.Winter.Available() {
			row.Total = row.Fall.Plus(row.Winter)
		}
		if row.Room == "" || row.Residence == "" || !row.Total.Available() {
			continue
		}
		out = append(out, row)
	}
	return out
}

// OffCampusRow is the cost of one off-campus housing type for one term.
type OffCampusRow struct {
	Room  string      `json:"room"`
	Term  string      `json:"term"`
	Total money.Money `json:"total"`
}

// OffCampusRows returns every off-campus row naming a room type and a term.
func OffCampusRows(ds *dataset.Dataset) []OffCampusRow {
	var out []OffCampusRow
	for _, r := range ds.Table(dataset.TableOffCampusLiving) {
		row := OffCampusRow{
			Room:  r.Text("RoomType"),
			Term:  r.Text("Term"),
			Total: money.Parse(value(r, "TotalTermCost")),
		}
		if row.Room == "" || row.Term == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}

// MealPlanRow is one meal plan size and its yearly cost.
type MealPlanRow struct {
	Name  string      `json:"name"`
	Total money.Money `json:"total"`
}

// MealPlanRows returns the named meal plans in table order.
func MealPlanRows(ds *dataset.Dataset) []MealPlanRow {
	var out []MealPlanRow
	for _, r := range ds.Table(dataset.TableMealPlan) {
		row := MealPlanRow{
			Name:  r.Text("Meal Plan Size"),
			Total: money.Parse(value(r, "Total cost per year")),
		}
		if row.Name == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Living is the resolved housing cost.
type Living struct {
	Fall   money.Money `json:"fall"`
	Winter money.Money `json:"winter"`
	Total  money.Money `json:"total"`
}

func noLiving() Living {
	return Living{Fall: money.Zero(), Winter: money.Zero(), Total: money.Zero()}
}

// ResolveLiving resolves the housing selection of f, independent of tuition.
//
// On campus matches room type and residence token exactly; an unmatched
// selection costs nothing. Off campus looks up the Fall and Winter rows for
// the room type separately and adds them; a missing term, or a term without
// a cost, contributes 0.
func ResolveLiving(ds *dataset.Dataset, f Filter) Living {
	f = f.clean()
	switch f.Housing {
	case HousingOnCampus:
		res := textnorm.ResidenceToken(f.OnCampusResidence)
		for _, r := range OnCampusRows(ds) {
			if r.Room == f.OnCampusRoom && r.Residence == res {
				return Living{Fall: r.Fall, Winter: r.Winter, Total: r.Total}
			}
		}
		return noLiving()
	case HousingOffCampus:
		rows := OffCampusRows(ds)
		fall := termCost(rows, f.OffCampusRoom, TermFall)
		winter := termCost(rows, f.OffCampusRoom, TermWinter)
		return Living{Fall: fall, Winter: winter, Total: fall.Plus(winter)}
	default:
		return noLiving()
	}
}

func termCost(rows []OffCampusRow, room, term string) money.Money {
	for _, r := range rows {
		if r.Room == room && r.Term == term {
			if r.Total.Available() {
				return r.Total
			}
			break
		}
	}
	return money.Zero()
}

// ResolveMealPlan returns the yearly cost of the selected meal plan. "None",
// an empty selection or an unknown plan cost 0. A known plan whose cost is
// unavailable stays unavailable.
func ResolveMealPlan(ds *dataset.Dataset, f Filter) money.Money {
	name := textnorm.Clean(f.MealPlan)
	if name == "" || name == MealPlanNone {
		return money.Zero()
	}
	for _, r := range MealPlanRows(ds) {
		if r.Name == name {
			return r.Total
		}
	}
	return money.Zero()
}
