package taxonomy

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

//go:embed schema.json
var schemaDocument string

// ErrInvalidTaxonomy wraps every load failure. A process cannot serve any
// session without a valid taxonomy, so callers treat it as fatal.
var ErrInvalidTaxonomy = errors.New("invalid taxonomy")

var compiledSchema = jsonschema.MustCompileString("taxonomy.schema.json", schemaDocument)

// Default returns the built-in e-invoice taxonomy.
func Default() (*Taxonomy, error) {
	return Parse(defaultDocument)
}

// DefaultDocument returns the raw YAML of the built-in taxonomy.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}

// Load reads a taxonomy from path, or the built-in one when path is empty.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidTaxonomy, path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, checks it against the JSON schema and then
// checks cross references the schema cannot express.
func Parse(data []byte) (*Taxonomy, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidTaxonomy, err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var tx Taxonomy
	if err := yaml.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidTaxonomy, err)
	}
	if err := validateReferences(&tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaxonomy, err)
	}
	tx.index()
	return &tx, nil
}

// validateSchema round-trips the YAML tree through JSON so the validator sees
// the same value types encoding/json would produce.
func validateSchema(doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTaxonomy, err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTaxonomy, err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: schema: %s", ErrInvalidTaxonomy, verr.Error())
		}
		return fmt.Errorf("%w: schema: %v", ErrInvalidTaxonomy, err)
	}
	return nil
}

func validateReferences(tx *Taxonomy) error {
	domains := make(map[string]struct{}, len(tx.DomainList))
	for i, d := range tx.DomainList {
		if _, dup := domains[d.ID]; dup {
			return fmt.Errorf("domains[%d]: duplicate id %q", i, d.ID)
		}
		domains[d.ID] = struct{}{}
	}

	tables := make(map[string]struct{}, len(tx.TableList))
	for i, t := range tx.TableList {
		if _, dup := tables[t.ID]; dup {
			return fmt.Errorf("tables[%d]: duplicate id %q", i, t.ID)
		}
		tables[t.ID] = struct{}{}

		permitted := false
		for _, d := range t.Domains {
			if _, ok := domains[d]; !ok {
				return fmt.Errorf("tables[%d] (%q): unknown domain %q", i, t.ID, d)
			}
			if d == t.DefaultDomain {
				permitted = true
			}
		}
		if !permitted {
			return fmt.Errorf("tables[%d] (%q): default_domain %q is not one of its domains", i, t.ID, t.DefaultDomain)
		}
		for key := range t.Columns.Categories {
			if _, ok := domains[key]; !ok && key != "default" {
				return fmt.Errorf("tables[%d] (%q): categories key %q is neither a domain nor \"default\"", i, t.ID, key)
			}
		}
		for key, m := range t.Columns.Values {
			if _, ok := domains[key]; !ok && key != "default" {
				return fmt.Errorf("tables[%d] (%q): values key %q is neither a domain nor \"default\"", i, t.ID, key)
			}
			if m.Agg != "count" && m.Column == "" {
				return fmt.Errorf("tables[%d] (%q): values.%s needs a column for agg %q", i, t.ID, key, m.Agg)
			}
		}
	}

	if _, ok := tables[tx.DefaultTable]; !ok {
		return fmt.Errorf("default_table %q is not a declared table", tx.DefaultTable)
	}
	return nil
}
