package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPrice is returned by ValidatePrice for prices that must not reach the engine.
var ErrInvalidPrice = errors.New("price must be a positive finite number")

// Parameters holds the markup chain applied between purchase and retail price.
type Parameters struct {
	QualityControlPercent  float64 `json:"qualityControlPercent" yaml:"quality_control_percent"`
	TransportInsuranceCost float64 `json:"transportInsuranceCost" yaml:"transport_insurance_cost"`
	Duty                   float64 `json:"duty" yaml:"duty"`
	ExchangeRate           float64 `json:"exchangeRate" yaml:"exchange_rate"`
	ItalyAccessoryCosts    float64 `json:"italyAccessoryCosts" yaml:"italy_accessory_costs"`
	CompanyMultiplier      float64 `json:"companyMultiplier" yaml:"company_multiplier"`
	RetailMultiplier       float64 `json:"retailMultiplier" yaml:"retail_multiplier"`
}

// Validate reports the first field that violates its range.
// Sell and Buy never call it: divisors must be checked by the caller.
func (p Parameters) Validate() error {
	checks := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"qualityControlPercent", p.QualityControlPercent, false},
		{"transportInsuranceCost", p.TransportInsuranceCost, false},
		{"duty", p.Duty, false},
		{"exchangeRate", p.ExchangeRate, true},
		{"italyAccessoryCosts", p.ItalyAccessoryCosts, false},
		{"companyMultiplier", p.CompanyMultiplier, true},
		{"retailMultiplier", p.RetailMultiplier, true},
	}

	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%s must be a finite number", c.name)
		}
		if c.positive && c.value <= 0 {
			return fmt.Errorf("%s must be greater than 0", c.name)
		}
		if c.value < 0 {
			return fmt.Errorf("%s must be greater than or equal to 0", c.name)
		}
	}
	return nil
}

// ValidatePrice rejects zero, negative and non-finite prices.
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// SellResult contains every stage of the purchase to retail calculation.
type SellResult struct {
	PurchasePrice                  float64 `json:"purchasePrice"`
	QualityControlCost             float64 `json:"qualityControlCost"`
	PriceWithQC                    float64 `json:"priceWithQC"`
	PriceWithTransport             float64 `json:"priceWithTransport"`
	DutyCost                       float64 `json:"dutyCost"`
	PriceWithDuty                  float64 `json:"priceWithDuty"`
	PriceWithDutyInSellingCurrency float64 `json:"priceWithDutyInSellingCurrency"`
	LandedCost                     float64 `json:"landedCost"`
	WholesalePrice                 float64 `json:"wholesalePrice"`
	RetailPriceRaw                 float64 `json:"retailPriceRaw"`
	RetailPrice                    float64 `json:"retailPrice"`
	CompanyMargin                  float64 `json:"companyMargin"`
}

// Finite reports whether every stage is a finite number.
// Extreme inputs can overflow the chain even when they pass ValidatePrice.
func (r SellResult) Finite() bool {
	return allFinite(r.PurchasePrice, r.QualityControlCost, r.PriceWithQC, r.PriceWithTransport,
		r.DutyCost, r.PriceWithDuty, r.PriceWithDutyInSellingCurrency, r.LandedCost,
		r.WholesalePrice, r.RetailPriceRaw, r.RetailPrice, r.CompanyMargin)
}

// BuyResult contains every stage of the retail to purchase calculation.
type BuyResult struct {
	RetailPrice                          float64 `json:"retailPrice"`
	WholesalePrice                       float64 `json:"wholesalePrice"`
	LandedCost                           float64 `json:"landedCost"`
	PriceWithoutAccessories              float64 `json:"priceWithoutAccessories"`
	PriceWithoutDuty                     float64 `json:"priceWithoutDuty"`
	DutyCost                             float64 `json:"dutyCost"`
	PriceWithoutDutyInPurchasingCurrency float64 `json:"priceWithoutDutyInPurchasingCurrency"`
	PriceWithoutTransport                float64 `json:"priceWithoutTransport"`
	PurchasePriceRaw                     float64 `json:"purchasePriceRaw"`
	PurchasePrice                        float64 `json:"purchasePrice"`
	QualityControlCost                   float64 `json:"qualityControlCost"`
	CompanyMargin                        float64 `json:"companyMargin"`
}

// Finite reports whether every stage is a finite number.
func (r BuyResult) Finite() bool {
	return allFinite(r.RetailPrice, r.WholesalePrice, r.LandedCost, r.PriceWithoutAccessories,
		r.PriceWithoutDuty, r.DutyCost, r.PriceWithoutDutyInPurchasingCurrency, r.PriceWithoutTransport,
		r.PurchasePriceRaw, r.PurchasePrice, r.QualityControlCost, r.CompanyMargin)
}

// Sell computes the retail price for a purchase price.
// The stages compound in order; the input price is not range checked.
func Sell(purchasePrice float64, p Parameters) SellResult {
	qualityControlCost := purchasePrice * p.QualityControlPercent / 100.0
	priceWithQC := purchasePrice + qualityControlCost
	priceWithTransport := priceWithQC + p.TransportInsuranceCost

	dutyCost := priceWithTransport * p.Duty / 100.0
	priceWithDuty := priceWithTransport + dutyCost

	priceWithDutyInSellingCurrency := priceWithDuty / p.ExchangeRate
	landedCost := priceWithDutyInSellingCurrency + p.ItalyAccessoryCosts

	wholesalePrice := landedCost * p.CompanyMultiplier
	retailPriceRaw := wholesalePrice * p.RetailMultiplier

	return SellResult{
		PurchasePrice:                  purchasePrice,
		QualityControlCost:             qualityControlCost,
		PriceWithQC:                    priceWithQC,
		PriceWithTransport:             priceWithTransport,
		DutyCost:                       dutyCost,
		PriceWithDuty:                  priceWithDuty,
		PriceWithDutyInSellingCurrency: priceWithDutyInSellingCurrency,
		LandedCost:                     landedCost,
		WholesalePrice:                 wholesalePrice,
		RetailPriceRaw:                 retailPriceRaw,
		RetailPrice:                    RoundRetailPrice(retailPriceRaw),
		CompanyMargin:                  companyMargin(wholesalePrice, landedCost),
	}
}

// Buy computes the purchase price that supports a retail price.
// It reverses Sell stage by stage, so Buy(Sell(x).RetailPrice) drifts from x by the rounding.
func Buy(retailPrice float64, p Parameters) BuyResult {
	wholesalePrice := retailPrice / p.RetailMultiplier
	landedCost := wholesalePrice / p.CompanyMultiplier
	priceWithoutAccessories := landedCost - p.ItalyAccessoryCosts

	priceWithoutDuty := priceWithoutAccessories / (1 + p.Duty/100.0)
	dutyCost := priceWithoutAccessories - priceWithoutDuty

	priceWithoutDutyInPurchasingCurrency := priceWithoutDuty * p.ExchangeRate
	priceWithoutTransport := priceWithoutDutyInPurchasingCurrency - p.TransportInsuranceCost

	purchasePriceRaw := priceWithoutTransport / (1 + p.QualityControlPercent/100.0)
	purchasePrice := RoundPurchasePrice(purchasePriceRaw)

	return BuyResult{
		RetailPrice:                          retailPrice,
		WholesalePrice:                       wholesalePrice,
		LandedCost:                           landedCost,
		PriceWithoutAccessories:              priceWithoutAccessories,
		PriceWithoutDuty:                     priceWithoutDuty,
		DutyCost:                             dutyCost,
		PriceWithoutDutyInPurchasingCurrency: priceWithoutDutyInPurchasingCurrency,
		PriceWithoutTransport:                priceWithoutTransport,
		PurchasePriceRaw:                     purchasePriceRaw,
		PurchasePrice:                        purchasePrice,
		QualityControlCost:                   priceWithoutTransport - purchasePrice,
		CompanyMargin:                        companyMargin(wholesalePrice, landedCost),
	}
}

func companyMargin(wholesalePrice, landedCost float64) float64 {
	return (wholesalePrice - landedCost) / wholesalePrice
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
