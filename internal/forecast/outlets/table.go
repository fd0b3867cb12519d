// Package outlets holds the outlet enrichment table: the static attributes of every
// known store, keyed by outlet identifier.
package outlets

import (
	"errors"
	"fmt"
	"sort"

	"sales-forecast/internal/models"
)

var (
	ErrNotFound       = errors.New("OUTLET_NOT_FOUND")
	ErrInvalidProfile = errors.New("INVALID_OUTLET_PROFILE")
)

// Table is immutable once built and safe for concurrent lookups without locking.
type Table struct {
	profiles map[string]models.OutletProfile
	ids      []string
}

// NewTable validates profiles and indexes them by identifier.
func NewTable(profiles []models.OutletProfile) (*Table, error) {
	t := &Table{profiles: make(map[string]models.OutletProfile, len(profiles))}
	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			return nil, err
		}
		if _, dup := t.profiles[p.OutletIdentifier]; dup {
			return nil, fmt.Errorf("%w: duplicate outlet %s", ErrInvalidProfile, p.OutletIdentifier)
		}
		t.profiles[p.OutletIdentifier] = p
		t.ids = append(t.ids, p.OutletIdentifier)
	}
	sort.Strings(t.ids)
	return t, nil
}

func validateProfile(p models.OutletProfile) error {
	switch {
	case p.OutletIdentifier == "":
		return fmt.Errorf("%w: empty outlet identifier", ErrInvalidProfile)
	case !p.OutletType.Valid():
		return fmt.Errorf("%w: %s has outlet type %q", ErrInvalidProfile, p.OutletIdentifier, p.OutletType)
	case !p.OutletSize.Valid():
		return fmt.Errorf("%w: %s has outlet size %q", ErrInvalidProfile, p.OutletIdentifier, p.OutletSize)
	case !p.OutletLocationType.Valid():
		return fmt.Errorf("%w: %s has location type %q", ErrInvalidProfile, p.OutletIdentifier, p.OutletLocationType)
	case p.OutletYears < 0:
		return fmt.Errorf("%w: %s has negative age", ErrInvalidProfile, p.OutletIdentifier)
	}
	return nil
}

// Lookup returns the profile of id, or ErrNotFound.
func (t *Table) Lookup(id string) (models.OutletProfile, error) {
	p, ok := t.profiles[id]
	if !ok {
		return models.OutletProfile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// IDs returns the known identifiers in ascending order.
func (t *Table) IDs() []string {
	return append([]string(nil), t.ids...)
}

// Profiles returns every profile ordered by identifier.
func (t *Table) Profiles() []models.OutletProfile {
	out := make([]models.OutletProfile, len(t.ids))
	for i, id := range t.ids {
		out[i] = t.profiles[id]
	}
	return out
}

func (t *Table) Len() int {
	return len(t.ids)
}
