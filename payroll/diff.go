package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Edit is a partial update of a period's settings. Nil fields are unchanged.
type Edit struct {
	Option            *CompensationVariant
	ChequeAmount      *decimal.Decimal
	ClearChequeAmount bool
}

// Apply returns the draft settings produced by the edit.
func (e Edit) Apply(s Settings) Settings {
	draft := Settings{Option: s.Option, ChequeAmount: cloneDecimal(s.ChequeAmount)}
	if e.Option != nil {
		draft.Option = *e.Option
	}
	switch {
	case e.ClearChequeAmount:
		draft.ChequeAmount = nil
	case e.ChequeAmount != nil:
		draft.ChequeAmount = cloneDecimal(e.ChequeAmount)
	}
	return draft
}

// Validate checks the edit-boundary constraints that do not depend on role.
func (s Settings) Validate() error {
	if !s.Option.Valid() {
		return generic.ErrVariantNotAllowed
	}
	if s.ChequeAmount != nil && s.ChequeAmount.IsNegative() {
		return &generic.InvalidOverrideError{Amount: *s.ChequeAmount}
	}
	return nil
}

// ChangeSet describes what differs between stored and draft settings.
type ChangeSet struct {
	OptionChanged       bool
	ChequeAmountChanged bool
	Before              Settings
	After               Settings
}

// Empty reports whether nothing changed.
func (c ChangeSet) Empty() bool { return !c.OptionChanged && !c.ChequeAmountChanged }

// Diff compares two settings values. Cheque amounts compare by value, so
// "10" and "10.00" are the same amount.
func Diff(original, draft Settings) ChangeSet {
	return ChangeSet{
		OptionChanged:       original.Option != draft.Option,
		ChequeAmountChanged: !equalOptional(original.ChequeAmount, draft.ChequeAmount),
		Before:              original,
		After:               draft,
	}
}

func equalOptional(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
