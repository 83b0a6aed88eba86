package estimator

import (
	"github.com/bher20/costcalc/internal/dataset"
	"github.com/bher20/costcalc/internal/money"
	"github.com/bher20/costcalc/internal/textnorm"
)

// Table identifies which tuition table a filter resolves against.
type Table int

const (
	UndergradFullTime Table = iota
	UndergradPartTime
	GraduateFullTime
	GraduatePartTime
)

func (t Table) String() string {
	switch t {
	case UndergradPartTime:
		return "undergrad_part_time"
	case GraduateFullTime:
		return "graduate_full_time"
	case GraduatePartTime:
		return "graduate_part_time"
	default:
		return "undergrad_full_time"
	}
}

// Name is the physical dataset table name.
func (t Table) Name() string {
	switch t {
	case UndergradPartTime:
		return dataset.TableUndergradPartTime
	case GraduateFullTime:
		return dataset.TableGraduateFullTime
	case GraduatePartTime:
		return dataset.TableGraduatePartTime
	default:
		return dataset.TableUndergradFullTime
	}
}

// Graduate reports whether t is one of the graduate tables.
func (t Table) Graduate() bool { return t == GraduateFullTime || t == GraduatePartTime }

// MarshalText lets Table appear as its String form in JSON.
func (t Table) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// SelectTable picks the tuition table for f. Graduate is checked before load,
// so a graduate filter never reads an undergraduate table.
func SelectTable(f Filter) Table {
	switch {
	case f.Graduate() && f.PartTime():
		return GraduatePartTime
	case f.Graduate():
		return GraduateFullTime
	case f.PartTime():
		return UndergradPartTime
	default:
		return UndergradFullTime
	}
}

// TuitionRow is a tuition record with cleaned text and parsed amounts.
type TuitionRow struct {
	Program    string      `json:"program"`
	Major      string      `json:"major,omitempty"`
	Credits    string      `json:"credits,omitempty"`
	Residency  string      `json:"residency"`
	Province   string      `json:"province,omitempty"`
	Load       string      `json:"load"`
	CohortYear string      `json:"cohort_year"`
	Fall       money.Money `json:"fall"`
	Winter     money.Money `json:"winter"`
	Summer     money.Money `json:"summer"`
	FallWinter money.Money `json:"fall_winter"`
}

// TuitionRows returns every row of the table selected for f, normalized.
// Major is only read from the undergraduate full-time table and Summer only
// from the graduate tables.
func TuitionRows(ds *dataset.Dataset, f Filter) []TuitionRow {
	t := SelectTable(f)
	raw := ds.Table(t.Name())
	out := make([]TuitionRow, 0, len(raw))
	for _, r := range raw {
		row := TuitionRow{
			Program:    r.Text("Program"),
			Residency:  r.Text("Residency"),
			Province:   r.Text("Province"),
			Load:       r.Text("Load"),
			CohortYear: r.Text("CohortYear"),
			Fall:       money.Parse(value(r, "FallTotal")),
			Winter:     money.Parse(value(r, "WinterTotal")),
			Summer:     money.Unavailable(),
			FallWinter: money.Parse(value(r, "FallWinterTotal")),
		}
		if t == UndergradFullTime {
			row.Major = r.Text("Major")
		} else {
			row.Credits = r.Text("Credits")
		}
		if t.Graduate() {
			row.Summer = money.Parse(value(r, "SummerTotal"))
		}
		out = append(out, row)
	}
	return out
}

// FilterTuitionRows narrows TuitionRows to the rows matching the upstream
// facets of f (everything except program, major and credits).
//
// Graduate rows match on residency, load token and cohort token; province is
// not a graduate facet. Undergraduate part-time rows match on residency,
// province, cohort token and the part-time load token. Undergraduate
// full-time rows compare Load by exact text, unlike the part-time path.
func FilterTuitionRows(ds *dataset.Dataset, f Filter) []TuitionRow {
	f = f.clean()
	t := SelectTable(f)
	wantCohort := textnorm.CohortToken(f.CohortYear)

	var keep func(TuitionRow) bool
	switch {
	case t.Graduate():
		wantLoad := textnorm.LoadToken(f.Load)
		keep = func(r TuitionRow) bool {
			return r.Residency == f.Residency &&
				textnorm.LoadToken(r.Load) == wantLoad &&
				textnorm.CohortToken(r.CohortYear) == wantCohort
		}
	case t == UndergradPartTime:
		keep = func(r TuitionRow) bool {
			return r.Residency == f.Residency &&
				r.Province == f.Province &&
				textnorm.CohortToken(r.CohortYear) == wantCohort &&
				textnorm.IsPartTime(r.Load)
		}
	default:
		keep = func(r TuitionRow) bool {
			return r.Residency == f.Residency &&
				r.Province == f.Province &&
				r.Load == f.Load &&
				textnorm.CohortToken(r.CohortYear) == wantCohort
		}
	}

	var out []TuitionRow
	for _, r := range TuitionRows(ds, f) {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match is the outcome of tuition resolution. A nil Row is the NoMatch
// outcome. Summer is only set for graduate part-time filters, where the flat
// summer rate lives on its own row.
type Match struct {
	Table  Table
	Row    *TuitionRow
	Summer *TuitionRow
}

// Found reports whether a tuition row was resolved.
func (m Match) Found() bool { return m.Row != nil }

// ResolveTuition selects the tuition row for f. When several rows satisfy
// the filter the first one in table order wins.
func ResolveTuition(ds *dataset.Dataset, f Filter) Match {
	f = f.clean()
	t := SelectTable(f)
	rows := FilterTuitionRows(ds, f)
	m := Match{Table: t}

	switch t {
	case GraduatePartTime:
		m.Row = first(rows, func(r TuitionRow) bool { return r.Program == f.Program && r.Credits == f.Credits })
		m.Summer = first(rows, func(r TuitionRow) bool { return r.Program == f.Program && r.Credits == SummerCredits })
	case GraduateFullTime:
		m.Row = first(rows, func(r TuitionRow) bool { return r.Program == f.Program })
	case UndergradPartTime:
		m.Row = first(rows, func(r TuitionRow) bool { return r.Program == f.Program && r.Credits == f.Credits })
	default:
		m.Row = first(rows, func(r TuitionRow) bool { return r.Program == f.Program && r.Major == f.Major })
	}
	return m
}

func first(rows []TuitionRow, pred func(TuitionRow) bool) *TuitionRow {
	for i := range rows {
		if pred(rows[i]) {
			r := rows[i]
			return &r
		}
	}
	return nil
}

func value(r dataset.Row, key string) any {
	v, _ := r.Get(key)
	return v
}
