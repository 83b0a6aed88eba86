package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bher20/costcalc/internal/estimator"
	"github.com/bher20/costcalc/internal/money"
)

const maxBodyBytes = 1 << 16

// filterFromQuery reads a Filter from query parameters named like its JSON
// fields.
func filterFromQuery(q url.Values) (estimator.Filter, error) {
	f := estimator.Filter{
		Level:             estimator.Level(q.Get("level")),
		Residency:         q.Get("residency"),
		Province:          q.Get("province"),
		Load:              q.Get("load"),
		CohortYear:        q.Get("cohort_year"),
		Credits:           q.Get("credits"),
		Program:           q.Get("program"),
		Major:             q.Get("major"),
		Housing:           estimator.Housing(q.Get("housing")),
		OnCampusRoom:      q.Get("oncampus_room"),
		OnCampusResidence: q.Get("oncampus_residence"),
		OffCampusRoom:     q.Get("offcampus_room"),
		MealPlan:          q.Get("meal_plan"),
	}
	if v := q.Get("include_summer"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("include_summer: %w", err)
		}
		f.IncludeSummer = b
	}
	return f, nil
}

func readFilter(w http.ResponseWriter, r *http.Request) (estimator.Filter, error) {
	if r.Method != http.MethodPost {
		return filterFromQuery(r.URL.Query())
	}
	var f estimator.Filter
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("invalid filter body: %w", err)
	}
	return f, nil
}

type lineResponse struct {
	Label   string      `json:"label"`
	Amount  money.Money `json:"amount"`
	Display string      `json:"display"`
}

type estimateResponse struct {
	Lines             []lineResponse  `json:"lines"`
	GrandTotal        money.Money     `json:"grand_total"`
	GrandTotalDisplay string          `json:"grand_total_display"`
	Matched           bool            `json:"matched"`
	Table             estimator.Table `json:"table"`
}

func newEstimateResponse(est estimator.Estimate) estimateResponse {
	resp := estimateResponse{
		Lines:             make([]lineResponse, 0, len(est.Lines)),
		GrandTotal:        est.GrandTotal,
		GrandTotalDisplay: money.Format(est.GrandTotal),
		Matched:           est.Matched,
		Table:             est.Table,
	}
	for _, l := range est.Lines {
		resp.Lines = append(resp.Lines, lineResponse{Label: l.Label, Amount: l.Amount, Display: money.Format(l.Amount)})
	}
	return resp
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	f, err := readFilter(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	est, err := s.catalog.Estimate(f)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEstimateResponse(est))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := s.catalog.Options(f)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleOptionList(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := s.catalog.Options(f)
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	var values any
	switch name := chi.URLParam(r, "list"); name {
	case "programs":
		values = opts.Programs
	case "majors":
		values = opts.Majors
	case "cohorts":
		values = opts.Cohorts
	case "provinces":
		values = opts.Provinces
	case "credits":
		values = opts.Credits
	case "rooms":
		values = opts.Rooms
	case "residences":
		values = opts.Residences
	case "offcampus":
		values = opts.OffCampus
	case "mealplans":
		values = opts.MealPlans
	case "controls":
		values = opts.Controls
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown option list %q", name))
		return
	}
	writeJSON(w, http.StatusOK, values)
}
