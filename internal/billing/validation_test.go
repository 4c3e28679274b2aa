package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInvoiceData(t *testing.T) {
	assert.Equal(t, []string{"Line items must be provided as a list"}, ValidateInvoiceData(nil))
	assert.Equal(t, []string{RuleHasLineItems}, ValidateInvoiceData([]LineItem{}))

	ok := []LineItem{{ID: "1", Description: "Compressor", Quantity: d("1"), UnitPrice: d("0"), TaxRate: decPtr("0")}}
	assert.Empty(t, ValidateInvoiceData(ok))

	bad := []LineItem{
		{ID: "1", Description: "Compressor", Quantity: d("1"), UnitPrice: d("10")},
		{ID: " ", Description: "", Quantity: d("0"), UnitPrice: d("-1"), TaxRate: decPtr("101")},
	}
	assert.Equal(t, []string{
		"Line item 2: id is required",
		"Line item 2: description is required",
		"Line item 2: quantity must be greater than 0",
		"Line item 2: unit price cannot be negative",
		"Line item 2: tax rate must be between 0 and 100",
	}, ValidateInvoiceData(bad))
}

func TestValidateAdjustments(t *testing.T) {
	assert.Empty(t, ValidateAdjustments("Fee", []Adjustment{{Amount: d("5"), Type: AdjustmentFixed}}))

	errs := ValidateAdjustments("Discount", []Adjustment{
		{Amount: d("-5"), Type: AdjustmentFixed},
		{Amount: d("150"), Type: AdjustmentPercentage},
		{Amount: d("1"), Type: "bogus"},
	})
	assert.Equal(t, []string{
		"Discount 1: amount cannot be negative",
		"Discount 2: percentage cannot exceed 100",
		"Discount 3: type must be fixed or percentage",
	}, errs)
}
