package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func TestEdit_Apply(t *testing.T) {
	tipsAndCash := payroll.VariantStoreEmployeeTipsAndCash
	original := payroll.Settings{Option: payroll.VariantStoreEmployee, ChequeAmount: ptr("100")}

	t.Run("empty edit keeps everything", func(t *testing.T) {
		draft := payroll.Edit{}.Apply(original)
		assert.Equal(t, original, draft)
		assert.True(t, payroll.Diff(original, draft).Empty())
	})

	t.Run("option only", func(t *testing.T) {
		draft := payroll.Edit{Option: &tipsAndCash}.Apply(original)
		changes := payroll.Diff(original, draft)

		assert.True(t, changes.OptionChanged)
		assert.False(t, changes.ChequeAmountChanged)
		assertDecimal(t, "100", *draft.ChequeAmount, "cheque amount")
	})

	t.Run("clear cheque amount", func(t *testing.T) {
		draft := payroll.Edit{ClearChequeAmount: true}.Apply(original)

		assert.Nil(t, draft.ChequeAmount)
		assert.True(t, payroll.Diff(original, draft).ChequeAmountChanged)
	})

	t.Run("draft does not alias the original", func(t *testing.T) {
		draft := payroll.Edit{}.Apply(original)
		*draft.ChequeAmount = d("1")
		assertDecimal(t, "100", *original.ChequeAmount, "original cheque amount")
	})
}

func TestDiff_ChequeAmountComparesByValue(t *testing.T) {
	a := payroll.Settings{Option: payroll.VariantStoreEmployee, ChequeAmount: ptr("10")}
	b := payroll.Settings{Option: payroll.VariantStoreEmployee, ChequeAmount: ptr("10.00")}

	assert.True(t, payroll.Diff(a, b).Empty())
}

func TestSettings_Validate(t *testing.T) {
	ok := payroll.Settings{Option: payroll.VariantStoreEmployeeTipsAndCash, ChequeAmount: ptr("0")}
	assert.NoError(t, ok.Validate())

	negative := payroll.Settings{Option: payroll.VariantStoreEmployeeTipsAndCash, ChequeAmount: ptr("-1")}
	err := negative.Validate()
	var override *generic.InvalidOverrideError
	require.ErrorAs(t, err, &override)
	assertDecimal(t, "-1", override.Amount, "rejected amount")
	assert.ErrorIs(t, err, generic.ErrInvalidOverride)

	unknown := payroll.Settings{Option: "weekly"}
	assert.ErrorIs(t, unknown.Validate(), generic.ErrVariantNotAllowed)
}
