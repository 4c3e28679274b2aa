package billing

import (
	"fmt"
	"time"

	"billing-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// AdjustmentType says how a fee or discount amount is interpreted.
type AdjustmentType string

const (
	AdjustmentFixed      AdjustmentType = "fixed"
	AdjustmentPercentage AdjustmentType = "percentage"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one billable quantity x unit price entry.
type LineItem struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	TaxAmount   *decimal.Decimal `json:"tax_amount,omitempty"`
}

// Adjustment is a fee or a discount.
type Adjustment struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        AdjustmentType  `json:"type"`
}

// InvoiceTotals are derived from line items, fees and discounts.
type InvoiceTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	TotalFees      decimal.Decimal `json:"total_fees"`
	TotalDiscounts decimal.Decimal `json:"total_discounts"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}

// CalculationResult is returned by CalculateInvoiceTotals. Errors on single
// items are collected rather than aborting the whole calculation.
type CalculationResult struct {
	Success   bool          `json:"success"`
	Totals    InvoiceTotals `json:"totals"`
	Errors    []string      `json:"errors"`
	Timestamp time.Time     `json:"timestamp"`
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateLineItemSubtotal returns round2(quantity * unitPrice).
func CalculateLineItemSubtotal(quantity, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: quantity cannot be negative (%s)", ErrInvalidArgument, quantity)
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: unit price cannot be negative (%s)", ErrInvalidArgument, unitPrice)
	}
	return Round2(quantity.Mul(unitPrice)), nil
}

// CalculateLineItemTax returns round2(subtotal * taxRate / 100).
func CalculateLineItemTax(subtotal, taxRate decimal.Decimal) (decimal.Decimal, error) {
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: tax rate must be between 0 and 100 (%s)", ErrInvalidArgument, taxRate)
	}
	return Round2(subtotal.Mul(taxRate).Div(hundred)), nil
}

// applyAdjustment returns the currency value of a single fee or discount.
// Percentages are always taken against the line-item subtotal, never against
// a running total.
func applyAdjustment(a Adjustment, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch a.Type {
	case AdjustmentFixed:
		return a.Amount, nil
	case AdjustmentPercentage:
		return Round2(subtotal.Mul(a.Amount).Div(hundred)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown adjustment type %q", ErrInvalidArgument, a.Type)
	}
}

func sumAdjustments(entries []Adjustment, subtotal decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range entries {
		v, err := applyAdjustment(e, subtotal)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return Round2(total), nil
}

// CalculateTotalFees sums fees against the given subtotal.
func CalculateTotalFees(fees []Adjustment, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return sumAdjustments(fees, subtotal)
}

// CalculateTotalDiscounts sums discounts against the given subtotal.
func CalculateTotalDiscounts(discounts []Adjustment, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return sumAdjustments(discounts, subtotal)
}

// CalculateInvoiceTotals computes all invoice totals. The line items passed in
// get their Subtotal and TaxAmount fields filled.
func CalculateInvoiceTotals(lineItems []LineItem, fees, discounts []Adjustment) CalculationResult {
	result := CalculationResult{Errors: []string{}, Timestamp: timeutil.Now()}

	if len(lineItems) == 0 {
		result.Errors = append(result.Errors, RuleHasLineItems)
	}

	subtotal := decimal.Zero
	totalTax := decimal.Zero
	for i := range lineItems {
		item := &lineItems[i]

		itemSubtotal, err := CalculateLineItemSubtotal(item.Quantity, item.UnitPrice)
		if err != nil {
			result.Errors = append(result.Errors, (&CalculationError{Index: i, Err: err}).Error())
			continue
		}

		itemTax := decimal.Zero
		if item.TaxRate != nil {
			itemTax, err = CalculateLineItemTax(itemSubtotal, *item.TaxRate)
			if err != nil {
				result.Errors = append(result.Errors, (&CalculationError{Index: i, Err: err}).Error())
				continue
			}
			tax := itemTax
			item.TaxAmount = &tax
		}

		item.Subtotal = itemSubtotal
		subtotal = subtotal.Add(itemSubtotal)
		totalTax = totalTax.Add(itemTax)
	}
	subtotal = Round2(subtotal)
	totalTax = Round2(totalTax)

	totalFees, err := CalculateTotalFees(fees, subtotal)
	if err != nil {
		result.Errors = append(result.Errors, "fees: "+err.Error())
		totalFees = decimal.Zero
	}
	totalDiscounts, err := CalculateTotalDiscounts(discounts, subtotal)
	if err != nil {
		result.Errors = append(result.Errors, "discounts: "+err.Error())
		totalDiscounts = decimal.Zero
	}

	finalTotal := subtotal.Add(totalTax).Add(totalFees).Sub(totalDiscounts)
	if finalTotal.IsNegative() {
		finalTotal = decimal.Zero
	}

	result.Totals = InvoiceTotals{
		Subtotal:       subtotal,
		TotalTax:       totalTax,
		TotalFees:      totalFees,
		TotalDiscounts: totalDiscounts,
		FinalTotal:     Round2(finalTotal),
	}
	result.Success = len(result.Errors) == 0
	return result
}
