package models

import "sort"

// RestrictionKind is the category of an exclusion list.
type RestrictionKind string

const (
	RestrictionLotation   RestrictionKind = "lotation"
	RestrictionDepartment RestrictionKind = "department"
	RestrictionBondType   RestrictionKind = "bond_type"
)

// RestrictionRow is one row of the restrictions table.
type RestrictionRow struct {
	Kind  string `json:"kind" db:"tipo_restricao"`
	Value string `json:"value" db:"valor_restrito"`
}

// RestrictionSet maps a restriction kind to its excluded values.
type RestrictionSet map[RestrictionKind]map[string]struct{}

// NewRestrictionSet returns an empty set.
func NewRestrictionSet() RestrictionSet {
	return RestrictionSet{}
}

// Add records an excluded value. Duplicates collapse.
func (rs RestrictionSet) Add(kind RestrictionKind, value string) {
	if value == "" {
		return
	}
	if rs[kind] == nil {
		rs[kind] = make(map[string]struct{})
	}
	rs[kind][value] = struct{}{}
}

// Values returns the sorted excluded values for a kind.
func (rs RestrictionSet) Values(kind RestrictionKind) []string {
	values := make([]string, 0, len(rs[kind]))
	for v := range rs[kind] {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Empty reports whether no restriction is present.
func (rs RestrictionSet) Empty() bool {
	for _, values := range rs {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// MarshalView returns the set as plain lists, for JSON responses.
func (rs RestrictionSet) MarshalView() map[string][]string {
	return map[string][]string{
		string(RestrictionLotation):   rs.Values(RestrictionLotation),
		string(RestrictionDepartment): rs.Values(RestrictionDepartment),
		string(RestrictionBondType):   rs.Values(RestrictionBondType),
	}
}
