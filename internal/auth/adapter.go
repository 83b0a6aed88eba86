package auth

import (
	"context"
	"strings"

	"github.com/bher20/costcalc/internal/storage"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
)

// Adapter implements the Casbin persist.Adapter interface using storage.Storage.
type Adapter struct {
	storage storage.Storage
}

// NewAdapter returns a new Casbin adapter.
func NewAdapter(s storage.Storage) *Adapter {
	return &Adapter{storage: s}
}

func toRule(ptype string, rule []string) storage.CasbinRule {
	r := storage.CasbinRule{PType: ptype}
	fields := []*string{&r.V0, &r.V1, &r.V2, &r.V3, &r.V4, &r.V5}
	for i, v := range rule {
		if i >= len(fields) {
			break
		}
		*fields[i] = v
	}
	return r
}

func ruleValues(r storage.CasbinRule) []string {
	vals := []string{r.V0, r.V1, r.V2, r.V3, r.V4, r.V5}
	n := len(vals)
	for n > 0 && vals[n-1] == "" {
		n--
	}
	return vals[:n]
}

// LoadPolicy loads all policy rules from the storage.
func (a *Adapter) LoadPolicy(m model.Model) error {
	rules, err := a.storage.LoadCasbinRules(context.Background())
	if err != nil {
		return err
	}
	for _, rule := range rules {
		line := strings.Join(append([]string{rule.PType}, ruleValues(rule)...), ", ")
		if err := persist.LoadPolicyLine(line, m); err != nil {
			return err
		}
	}
	return nil
}

// SavePolicy replaces every stored rule with the rules in m.
func (a *Adapter) SavePolicy(m model.Model) error {
	ctx := context.Background()
	existing, err := a.storage.LoadCasbinRules(ctx)
	if err != nil {
		return err
	}
	for _, r := range existing {
		r.ID = 0
		if err := a.storage.RemoveCasbinRule(ctx, r); err != nil {
			return err
		}
	}
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				if err := a.storage.AddCasbinRule(ctx, toRule(ptype, rule)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// AddPolicy adds a policy rule to the storage.
func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.storage.AddCasbinRule(context.Background(), toRule(ptype, rule))
}

// RemovePolicy removes a policy rule from the storage.
func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return a.storage.RemoveCasbinRule(context.Background(), toRule(ptype, rule))
}

// RemoveFilteredPolicy removes the rules of ptype whose fields, starting at
// fieldIndex, equal the non-empty fieldValues.
func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	ctx := context.Background()
	rules, err := a.storage.LoadCasbinRules(ctx)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if r.PType != ptype || !matchesFilter(r, fieldIndex, fieldValues) {
			continue
		}
		r.ID = 0
		if err := a.storage.RemoveCasbinRule(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func matchesFilter(r storage.CasbinRule, fieldIndex int, fieldValues []string) bool {
	vals := []string{r.V0, r.V1, r.V2, r.V3, r.V4, r.V5}
	for i, want := range fieldValues {
		idx := fieldIndex + i
		if want == "" {
			continue
		}
		if idx >= len(vals) || vals[idx] != want {
			return false
		}
	}
	return true
}
