package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/listino/internal/pricing"
)

// DefaultParameterSet is the parameter set seeded into an empty database.
type DefaultParameterSet struct {
	Name             string             `yaml:"name"`
	Description      string             `yaml:"description"`
	PurchaseCurrency string             `yaml:"purchase_currency"`
	SellingCurrency  string             `yaml:"selling_currency"`
	Parameters       pricing.Parameters `yaml:"parameters"`
}

// Defaults is the content of the defaults YAML file.
type Defaults struct {
	ParameterSet DefaultParameterSet `yaml:"parameter_set"`
}

// BuiltinDefaults returns the defaults used when no file is present.
func BuiltinDefaults() Defaults {
	return Defaults{
		ParameterSet: DefaultParameterSet{
			Name:             "Default",
			Description:      "USD purchases sold in EUR",
			PurchaseCurrency: "USD",
			SellingCurrency:  "EUR",
			Parameters: pricing.Parameters{
				QualityControlPercent:  5,
				TransportInsuranceCost: 2.3,
				Duty:                   8,
				ExchangeRate:           1.07,
				ItalyAccessoryCosts:    1,
				CompanyMultiplier:      2.08,
				RetailMultiplier:       2.48,
			},
		},
	}
}

// LoadDefaults reads a YAML defaults file and expands ${VAR} references.
// A missing file yields BuiltinDefaults.
func LoadDefaults(path string) (Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return BuiltinDefaults(), nil
		}
		return Defaults{}, fmt.Errorf("read defaults file: %w", err)
	}

	var d Defaults
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &d); err != nil {
		return Defaults{}, fmt.Errorf("parse defaults yaml: %w", err)
	}

	d.applyDefaults()
	if err := d.Validate(); err != nil {
		return Defaults{}, fmt.Errorf("validate defaults: %w", err)
	}
	return d, nil
}

func (d *Defaults) applyDefaults() {
	builtin := BuiltinDefaults().ParameterSet
	ps := &d.ParameterSet
	if ps.Name == "" {
		ps.Name = builtin.Name
	}
	if ps.PurchaseCurrency == "" {
		ps.PurchaseCurrency = builtin.PurchaseCurrency
	}
	if ps.SellingCurrency == "" {
		ps.SellingCurrency = builtin.SellingCurrency
	}
	ps.PurchaseCurrency = strings.ToUpper(ps.PurchaseCurrency)
	ps.SellingCurrency = strings.ToUpper(ps.SellingCurrency)
}

// Validate checks the default parameter set.
func (d Defaults) Validate() error {
	ps := d.ParameterSet
	if len(ps.PurchaseCurrency) != 3 || len(ps.SellingCurrency) != 3 {
		return fmt.Errorf("currencies must be 3-letter codes, got %q and %q", ps.PurchaseCurrency, ps.SellingCurrency)
	}
	return ps.Parameters.Validate()
}
