// Package dataset holds the immutable fee workbook the estimator reads from
// and the loaders that acquire it.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/bher20/costcalc/internal/textnorm"
)

// Physical table names as published in the fee workbook.
const (
	TableUndergradFullTime = "Tuition_Fees"
	TableUndergradPartTime = "Tuition_Fees_Undergrad_Part_tim"
	TableGraduateFullTime  = "Tuition_Fees_Graduate"
	TableGraduatePartTime  = "Tuition_Fees_Grad_Part_tim"
	TableOnCampusLiving    = "On_campus_Living_Costs"
	TableOffCampusLiving   = "Off_campus_Living_Costs"
	TableMealPlan          = "Meal_Plan"
)

// RequiredTables lists every table the estimator reads.
var RequiredTables = []string{
	TableUndergradFullTime,
	TableUndergradPartTime,
	TableGraduateFullTime,
	TableGraduatePartTime,
	TableOnCampusLiving,
	TableOffCampusLiving,
	TableMealPlan,
}

// ErrLoad wraps every failure to acquire or decode a dataset.
var ErrLoad = errors.New("dataset load failed")

// Row is one record of a table as authored. Keys may carry stray whitespace.
type Row map[string]any

// Get returns the value stored under key, matching physical keys after
// trimming surrounding whitespace. ok is false when no key matches.
func (r Row) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	if v, ok := r[key]; ok {
		return v, true
	}
	want := strings.TrimSpace(key)
	var keys []string
	for k := range r {
		if strings.TrimSpace(k) == want {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	// Several keys may trim to the same name; pick one deterministically.
	sort.Strings(keys)
	return r[keys[0]], true
}

// Text returns the cleaned string value for key, "" when absent.
func (r Row) Text(key string) string {
	v, _ := r.Get(key)
	return textnorm.Clean(v)
}

// Dataset is a read-only collection of named tables. Build one with New or a
// loader; it must not be modified afterwards.
type Dataset struct {
	tables map[string][]Row
}

// New builds a Dataset from decoded tables. Table names are trimmed; the
// input map is copied.
func New(tables map[string][]Row) *Dataset {
	ds := &Dataset{tables: make(map[string][]Row, len(tables))}
	for name, rows := range tables {
		cp := make([]Row, len(rows))
		copy(cp, rows)
		ds.tables[strings.TrimSpace(name)] = cp
	}
	return ds
}

// Table returns the rows of the named table in authored order, or nil when
// the table is absent. A nil Dataset has no tables.
func (d *Dataset) Table(name string) []Row {
	if d == nil {
		return nil
	}
	return d.tables[strings.TrimSpace(name)]
}

// TableNames returns the table names in sorted order.
func (d *Dataset) TableNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.tables))
	for n := range d.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the dataset in the same shape Decode reads.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.tables)
}

// Checksum is the hex SHA-256 of the JSON encoding.
func (d *Dataset) Checksum() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Summary describes a dataset for diagnostics.
type Summary struct {
	Checksum      string         `json:"checksum"`
	Tables        map[string]int `json:"tables"`
	MissingTables []string       `json:"missing_tables,omitempty"`
}

// Summary reports row counts for every table and which required tables are
// absent. Missing tables are not an error: lookups against them return no
// candidates.
func (d *Dataset) Summary() Summary {
	s := Summary{Checksum: d.Checksum(), Tables: make(map[string]int)}
	for _, n := range d.TableNames() {
		s.Tables[n] = len(d.tables[n])
	}
	for _, n := range RequiredTables {
		if _, ok := s.Tables[n]; !ok {
			s.MissingTables = append(s.MissingTables, n)
		}
	}
	return s
}

// Decode parses a JSON document whose top level maps table names to arrays
// of row objects. Numbers are kept as json.Number so credit values such as
// 0.5 keep their authored text. Top-level values that are not arrays and
// array elements that are not objects are skipped.
func Decode(r io.Reader) (*Dataset, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode json: %w", ErrLoad, err)
	}

	tables := make(map[string][]Row, len(doc))
	for name, msg := range doc {
		var items []json.RawMessage
		if err := json.Unmarshal(msg, &items); err != nil {
			log.Printf("dataset: skipping %q: not a table", name)
			continue
		}
		rows := make([]Row, 0, len(items))
		skipped := 0
		for _, item := range items {
			row, ok := decodeRow(item)
			if !ok {
				skipped++
				continue
			}
			rows = append(rows, row)
		}
		if skipped > 0 {
			log.Printf("dataset: table %q: skipped %d non-object rows", name, skipped)
		}
		tables[name] = rows
	}
	return New(tables), nil
}

// decodeRow decodes one table element, reporting false unless it is a JSON
// object.
func decodeRow(item json.RawMessage) (Row, bool) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	var row Row
	if err := dec.Decode(&row); err != nil || row == nil {
		return nil, false
	}
	return row, true
}
