package billing

import (
	"fmt"
	"strings"
)

// ValidateInvoiceData performs the structural pre-check on line items before
// any calculation. Messages number items from 1.
func ValidateInvoiceData(lineItems []LineItem) []string {
	if lineItems == nil {
		return []string{"Line items must be provided as a list"}
	}
	if len(lineItems) == 0 {
		return []string{RuleHasLineItems}
	}

	var errs []string
	for i, item := range lineItems {
		n := i + 1
		if strings.TrimSpace(item.ID) == "" {
			errs = append(errs, fmt.Sprintf("Line item %d: id is required", n))
		}
		if strings.TrimSpace(item.Description) == "" {
			errs = append(errs, fmt.Sprintf("Line item %d: description is required", n))
		}
		if !item.Quantity.IsPositive() {
			errs = append(errs, fmt.Sprintf("Line item %d: quantity must be greater than 0", n))
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, fmt.Sprintf("Line item %d: unit price cannot be negative", n))
		}
		if item.TaxRate != nil && (item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(hundred)) {
			errs = append(errs, fmt.Sprintf("Line item %d: tax rate must be between 0 and 100", n))
		}
	}
	return errs
}

// ValidateAdjustments checks fees or discounts; label names the list in messages.
func ValidateAdjustments(label string, entries []Adjustment) []string {
	var errs []string
	for i, a := range entries {
		n := i + 1
		if a.Type != AdjustmentFixed && a.Type != AdjustmentPercentage {
			errs = append(errs, fmt.Sprintf("%s %d: type must be fixed or percentage", label, n))
		}
		if a.Amount.IsNegative() {
			errs = append(errs, fmt.Sprintf("%s %d: amount cannot be negative", label, n))
		}
		if a.Type == AdjustmentPercentage && a.Amount.GreaterThan(hundred) {
			errs = append(errs, fmt.Sprintf("%s %d: percentage cannot exceed 100", label, n))
		}
	}
	return errs
}
