package plan

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Top   Tier          `yaml:"top"`
	Plans []Entitlement `yaml:"plans"`
}

// LoadYAML reads a catalog definition:
//
//	top: unlimited
//	plans:
//	  - tier: trial
//	    name: Trial
//	    limits: {catalog_items: 50, staff_seats: 1, monthly_operations: 300, sites: 1}
//	    features: [barcode_scanning]
func LoadYAML(r io.Reader, opts ...CatalogOption) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	if file.Top != "" {
		opts = append([]CatalogOption{WithTopTier(file.Top)}, opts...)
	}

	return NewCatalog(file.Plans, opts...)
}

// LoadFile opens path and calls LoadYAML.
func LoadFile(path string, opts ...CatalogOption) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	defer f.Close()

	return LoadYAML(f, opts...)
}
