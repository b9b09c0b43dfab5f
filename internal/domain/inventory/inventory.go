// Package inventory holds the static catalogue of rentable units.
package inventory

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrUnitNotFound  = errors.New("inventory: unit not found")
	ErrDuplicateUnit = errors.New("inventory: duplicate unit id")
	ErrInvalidUnit   = errors.New("inventory: unit id and complex are required")
)

type UnitID string

type ComplexID string

// Unit is immutable reference data: a cabin or apartment belonging to a complex.
type Unit struct {
	ID      UnitID
	Name    string
	Type    string
	Complex ComplexID
}

// Registry is the read-only lookup consumed by every mutating calendar operation.
type Registry interface {
	ListUnits(ctx context.Context) ([]Unit, error)
	Unit(ctx context.Context, id UnitID) (Unit, error)
}

// Catalogue is an in-memory Registry built once at startup.
type Catalogue struct {
	units []Unit
	byID  map[UnitID]Unit
}

func NewCatalogue(units []Unit) (*Catalogue, error) {
	c := &Catalogue{byID: make(map[UnitID]Unit, len(units))}
	for _, u := range units {
		if u.ID == "" || u.Complex == "" {
			return nil, ErrInvalidUnit
		}
		if _, ok := c.byID[u.ID]; ok {
			return nil, ErrDuplicateUnit
		}
		if u.Name == "" {
			u.Name = string(u.ID)
		}
		c.byID[u.ID] = u
		c.units = append(c.units, u)
	}
	sort.SliceStable(c.units, func(i, j int) bool {
		if c.units[i].Complex != c.units[j].Complex {
			return c.units[i].Complex < c.units[j].Complex
		}
		return c.units[i].ID < c.units[j].ID
	})
	return c, nil
}

func (c *Catalogue) ListUnits(ctx context.Context) ([]Unit, error) {
	out := make([]Unit, len(c.units))
	copy(out, c.units)
	return out, nil
}

func (c *Catalogue) Unit(ctx context.Context, id UnitID) (Unit, error) {
	u, ok := c.byID[id]
	if !ok {
		return Unit{}, ErrUnitNotFound
	}
	return u, nil
}

// ByComplex filters units belonging to the complex.
func ByComplex(units []Unit, complex ComplexID) []Unit {
	var out []Unit
	for _, u := range units {
		if u.Complex == complex {
			out = append(out, u)
		}
	}
	return out
}

// IDs extracts unit identifiers preserving order.
func IDs(units []Unit) []UnitID {
	out := make([]UnitID, 0, len(units))
	for _, u := range units {
		out = append(out, u.ID)
	}
	return out
}

var _ Registry = (*Catalogue)(nil)
