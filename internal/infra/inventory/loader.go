// Package inventory loads the unit catalogue from a YAML file.
package inventory

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	domain "staydesk/internal/domain/inventory"
)

// File is the on-disk layout:
//
//	complexes:
//	  - id: lakeside
//	    units:
//	      - id: cabin-1
//	        name: Cabin 1
//	        type: cabin
type File struct {
	Complexes []ComplexEntry `yaml:"complexes"`
}

type ComplexEntry struct {
	ID    string      `yaml:"id"`
	Units []UnitEntry `yaml:"units"`
}

type UnitEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadFile reads path and builds the catalogue.
func LoadFile(path string) (*domain.Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*domain.Catalogue, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("inventory: empty catalogue")
		}
		return nil, fmt.Errorf("inventory: decode: %w", err)
	}
	var units []domain.Unit
	for _, c := range file.Complexes {
		for _, u := range c.Units {
			units = append(units, domain.Unit{
				ID:      domain.UnitID(u.ID),
				Name:    u.Name,
				Type:    u.Type,
				Complex: domain.ComplexID(c.ID),
			})
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("inventory: no units defined")
	}
	cat, err := domain.NewCatalogue(units)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return cat, nil
}
