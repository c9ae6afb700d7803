package budget

import "github.com/shopspring/decimal"

// Form is one proposed expense row in a nested edit submission.
type Form struct {
	Line
	// Delete marks the row for removal.
	Delete bool
	// Valid is false when the row failed its own field validation.
	Valid bool
}

// FormsetInput is everything needed to check a nested submission before
// any of it is persisted.
type FormsetInput struct {
	// PendingIncome is the income typed into the parent form, if any.
	PendingIncome *decimal.Decimal
	// PersistedIncome is the stored income of an existing simulation.
	PersistedIncome decimal.Decimal
	Forms           []Form
}

// Income resolves the income to validate against: the pending value when
// present, otherwise the persisted one.
func (in FormsetInput) Income() decimal.Decimal {
	if in.PendingIncome != nil {
		return *in.PendingIncome
	}
	return in.PersistedIncome
}

// Remaining returns the rows that would survive the submission: not
// deleted and individually valid.
func (in FormsetInput) Remaining() []Line {
	lines := make([]Line, 0, len(in.Forms))
	for _, f := range in.Forms {
		if f.Delete || !f.Valid {
			continue
		}
		lines = append(lines, f.Line)
	}
	return lines
}

// AllDeleted reports whether every row is marked for deletion.
func (in FormsetInput) AllDeleted() bool {
	if len(in.Forms) == 0 {
		return false
	}
	for _, f := range in.Forms {
		if !f.Delete {
			return false
		}
	}
	return true
}

// ValidateFormset checks the proposed rows against the resolved income.
// When every row is marked for deletion no expenses remain and the check
// is skipped.
func ValidateFormset(in FormsetInput) error {
	if in.AllDeleted() {
		return nil
	}
	return Validate(in.Income(), in.Remaining())
}
