package enums

import "fmt"

// LedgerEntryType maps to the ledger_entry_type_enum enum in Postgres.
type LedgerEntryType string

const (
	LedgerEntryTypeCredit          LedgerEntryType = "credit"
	LedgerEntryTypeChargebackDebit LedgerEntryType = "chargeback_debit"
	LedgerEntryTypePayoutDebit     LedgerEntryType = "payout_debit"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeCredit,
	LedgerEntryTypeChargebackDebit,
	LedgerEntryTypePayoutDebit,
}

// IsValid reports whether the value matches the canonical ledger entry type enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}

// LedgerEntryStatus maps to the ledger_entry_status_enum enum in Postgres.
type LedgerEntryStatus string

const (
	LedgerEntryStatusAvailable LedgerEntryStatus = "available"
	LedgerEntryStatusLocked    LedgerEntryStatus = "locked"
	LedgerEntryStatusSettled   LedgerEntryStatus = "settled"
)

var validLedgerEntryStatuses = []LedgerEntryStatus{
	LedgerEntryStatusAvailable,
	LedgerEntryStatusLocked,
	LedgerEntryStatusSettled,
}

// IsValid reports whether the value matches the canonical ledger entry status enum.
func (s LedgerEntryStatus) IsValid() bool {
	for _, candidate := range validLedgerEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
