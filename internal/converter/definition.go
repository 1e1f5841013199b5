package converter

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/docconv/internal/document"
	"github.com/mrlokans/docconv/internal/utils"
)

// FieldType selects how a source cell is typed in the output document.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
)

// FieldMapping maps one source column to one output field.
type FieldMapping struct {
	Column string    `yaml:"column" json:"column" validate:"required"`
	Field  string    `yaml:"field" json:"field" validate:"required"`
	Type   FieldType `yaml:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=string int float"`
}

// ParentSpec declares the de-duplicated parent collection.
type ParentSpec struct {
	Collection string         `yaml:"collection" json:"collection" validate:"required"`
	Key        []string       `yaml:"key" json:"key" validate:"required,min=1,dive,required"`
	Fields     []FieldMapping `yaml:"fields" json:"fields" validate:"dive"`
}

// EmbedSpec declares a sub-object built from source columns.
type EmbedSpec struct {
	Field  string         `yaml:"field" json:"field" validate:"required"`
	Fields []FieldMapping `yaml:"fields" json:"fields" validate:"required,min=1,dive"`
}

// ChildSpec declares the per-row child collection.
type ChildSpec struct {
	Collection string         `yaml:"collection" json:"collection" validate:"required"`
	Reference  string         `yaml:"reference" json:"reference" validate:"required"`
	IDColumns  []string       `yaml:"id_columns" json:"id_columns" validate:"required,min=1,dive,required"`
	Fields     []FieldMapping `yaml:"fields" json:"fields" validate:"dive"`
	Embed      *EmbedSpec     `yaml:"embed,omitempty" json:"embed,omitempty" validate:"omitempty"`
}

// Definition describes one CSV-to-collections conversion.
type Definition struct {
	Name   string     `yaml:"name" json:"name" validate:"required"`
	Source string     `yaml:"source,omitempty" json:"source,omitempty"`
	Parent ParentSpec `yaml:"parent" json:"parent"`
	Child  ChildSpec  `yaml:"child" json:"child"`
}

// Columns returns every source column the definition reads, in first-use
// order.
func (d Definition) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}

	for _, c := range d.Parent.Key {
		add(c)
	}
	for _, f := range d.Parent.Fields {
		add(f.Column)
	}
	for _, c := range d.Child.IDColumns {
		add(c)
	}
	for _, f := range d.Child.Fields {
		add(f.Column)
	}
	if d.Child.Embed != nil {
		for _, f := range d.Child.Embed.Fields {
			add(f.Column)
		}
	}
	return cols
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and output field naming rules.
func (d Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msg := ""
			for _, fe := range verrs {
				msg += fmt.Sprintf("\n • field '%s': rule '%s' failed", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid pipeline definition %q:%s", d.Name, msg)
		}
		return err
	}

	if utils.SanitizeFilename(d.Parent.Collection) == utils.SanitizeFilename(d.Child.Collection) {
		return fmt.Errorf("pipeline %q: parent and child collections must differ", d.Name)
	}
	if d.Child.Reference == document.IDField {
		return fmt.Errorf("pipeline %q: reference field cannot be %s", d.Name, document.IDField)
	}

	if err := uniqueFields(d.Parent.Fields, document.IDField); err != nil {
		return fmt.Errorf("pipeline %q parent: %w", d.Name, err)
	}

	reserved := []string{document.IDField, d.Child.Reference}
	if d.Child.Embed != nil {
		reserved = append(reserved, d.Child.Embed.Field)
		if err := uniqueFields(d.Child.Embed.Fields); err != nil {
			return fmt.Errorf("pipeline %q embed: %w", d.Name, err)
		}
	}
	if err := uniqueFields(d.Child.Fields, reserved...); err != nil {
		return fmt.Errorf("pipeline %q child: %w", d.Name, err)
	}

	return nil
}

func uniqueFields(fields []FieldMapping, reserved ...string) error {
	seen := make(map[string]bool)
	for _, r := range reserved {
		seen[r] = true
	}
	for _, f := range fields {
		if seen[f.Field] {
			return fmt.Errorf("duplicate or reserved output field %q", f.Field)
		}
		seen[f.Field] = true
	}
	return nil
}

// typedValue converts raw cell text according to the mapping type.
func (m FieldMapping) typedValue(raw string, ok bool) (any, error) {
	if !ok {
		return nil, nil
	}
	switch m.Type {
	case FieldInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Integral columns are sometimes exported as "3.0".
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil || !finite(f) || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return nil, fmt.Errorf("not an integer: %q", raw)
			}
			return int64(f), nil
		}
		return v, nil
	case FieldFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", raw)
		}
		if !finite(v) {
			return nil, fmt.Errorf("not a finite number: %q", raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type definitionsFile struct {
	Pipelines []Definition `yaml:"pipelines"`
}

// LoadDefinitions reads pipeline definitions from a YAML file.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions parses and validates YAML pipeline definitions.
func ParseDefinitions(data []byte) ([]Definition, error) {
	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}
	for _, d := range file.Pipelines {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Pipelines, nil
}
