package lending

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lending/backend/internal/domain/shared"
	"github.com/lending/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AccountType identifies one of the five typed ledger accounts a loan owns
type AccountType string

const (
	AccountContractService    AccountType = "CONTRACT_SERVICE"     // holding area for raw incoming payments
	AccountGeneralDebt        AccountType = "GENERAL_DEBT"         // outstanding principal
	AccountInterest           AccountType = "INTEREST"             // accrued, uncollected interest
	AccountOverdueGeneralDebt AccountType = "OVERDUE_GENERAL_DEBT" // overdue principal
	AccountOverdueInterest    AccountType = "OVERDUE_INTEREST"     // overdue interest
)

// LoanAccountTypes lists the account types every loan opens, in a stable order
func LoanAccountTypes() []AccountType {
	return []AccountType{
		AccountContractService,
		AccountGeneralDebt,
		AccountInterest,
		AccountOverdueGeneralDebt,
		AccountOverdueInterest,
	}
}

// IsValid checks if the type is a known account type
func (t AccountType) IsValid() bool {
	switch t {
	case AccountContractService, AccountGeneralDebt, AccountInterest,
		AccountOverdueGeneralDebt, AccountOverdueInterest:
		return true
	}
	return false
}

// String returns the string representation of the account type
func (t AccountType) String() string {
	return string(t)
}

// EntryType classifies a ledger entry
type EntryType string

const (
	EntryAccrual  EntryType = "ACCRUAL"
	EntryTransfer EntryType = "TRANSFER"
	EntryPayment  EntryType = "PAYMENT"
)

// IsValid checks if the type is a known entry type
func (t EntryType) IsValid() bool {
	return t == EntryAccrual || t == EntryTransfer || t == EntryPayment
}

// EntrySubType identifies which side of the loan the entry touches
type EntrySubType string

const (
	SubTypeInterest        EntrySubType = "INTEREST"
	SubTypeGeneralDebt     EntrySubType = "GENERAL_DEBT"
	SubTypeContractService EntrySubType = "CONTRACT_SERVICE"
)

// IsValid checks if the subtype is a known entry subtype
func (t EntrySubType) IsValid() bool {
	return t == SubTypeInterest || t == SubTypeGeneralDebt || t == SubTypeContractService
}

// Entry is a single signed posting on an account. Entries are immutable
// once appended; the account balance is the signed sum of its entries.
type Entry struct {
	shared.BaseEntity
	AccountID uuid.UUID            `json:"account_id" gorm:"type:uuid;index"`
	Amount    decimal.Decimal      `json:"amount" gorm:"type:decimal(19,4);not null"`
	Currency  valueobject.Currency `json:"currency" gorm:"type:varchar(3);not null"`
	Type      EntryType            `json:"type" gorm:"type:varchar(16);not null"`
	SubType   EntrySubType         `json:"sub_type" gorm:"type:varchar(24);not null"`
	BookedAt  time.Time            `json:"booked_at" gorm:"not null"`
}

// NewEntry creates a ledger entry
func NewEntry(amount valueobject.Money, entryType EntryType, subType EntrySubType, bookedAt time.Time) (*Entry, error) {
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", fmt.Sprintf("Unknown entry type: %s", entryType))
	}
	if !subType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_SUBTYPE", fmt.Sprintf("Unknown entry subtype: %s", subType))
	}
	return &Entry{
		BaseEntity: shared.NewBaseEntity(),
		Amount:     amount.Amount(),
		Currency:   amount.Currency(),
		Type:       entryType,
		SubType:    subType,
		BookedAt:   bookedAt,
	}, nil
}

// Opposite returns the balancing entry: negated amount, identical
// type, subtype, booking time and currency. Used wherever a sweep needs a
// balanced two-sided posting.
func (e *Entry) Opposite() *Entry {
	return &Entry{
		BaseEntity: shared.NewBaseEntity(),
		Amount:     e.Amount.Neg(),
		Currency:   e.Currency,
		Type:       e.Type,
		SubType:    e.SubType,
		BookedAt:   e.BookedAt,
	}
}

// Money returns the entry amount as a Money value
func (e *Entry) Money() valueobject.Money {
	return valueobject.MustNewMoney(e.Amount, e.Currency)
}

// Account is one typed ledger account owned by a loan. The balance is a
// derived value: the signed sum of the account's entries, kept consistent on
// every append.
//
// Sign convention: the contract-service holding account carries a debit
// balance (positive = funds parked awaiting allocation); the debt accounts
// (general debt, interest and their overdue counterparts) carry credit
// balances (negative = outstanding, Outstanding gives the magnitude).
// Disbursements and accruals post negative amounts to debt accounts,
// payment allocations post positive ones, so every two-sided posting made
// of an entry and its Opposite sums to zero across the pair and a fully
// repaid loan ends with all five balances at exactly zero.
type Account struct {
	shared.BaseEntity
	LoanID   uuid.UUID            `json:"loan_id" gorm:"type:uuid;index"`
	Type     AccountType          `json:"type" gorm:"type:varchar(24);not null"`
	Currency valueobject.Currency `json:"currency" gorm:"type:varchar(3);not null"`
	Balance  decimal.Decimal      `json:"balance" gorm:"type:decimal(19,4);not null"`
	IsClosed bool                 `json:"is_closed" gorm:"not null;default:false"`
	OpenedAt time.Time            `json:"opened_at" gorm:"not null"`
	ClosedAt *time.Time           `json:"closed_at"`
	Entries  []Entry              `json:"entries" gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

// NewAccount opens an account of the given type and currency
func NewAccount(currency valueobject.Currency, accountType AccountType, openedAt time.Time) (*Account, error) {
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", fmt.Sprintf("Unknown account type: %s", accountType))
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unknown currency: %s", currency))
	}
	return &Account{
		BaseEntity: shared.NewBaseEntity(),
		Type:       accountType,
		Currency:   currency,
		Balance:    decimal.Zero,
		OpenedAt:   openedAt,
	}, nil
}

// AddEntry appends an entry and updates the derived balance. Fails with a
// currency mismatch when the entry currency differs from the account's,
// leaving the balance untouched.
func (a *Account) AddEntry(entry *Entry) error {
	if entry == nil {
		return shared.NewDomainError("INVALID_ENTRY", "Entry is required")
	}
	if entry.Currency != a.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH",
			fmt.Sprintf("Entry currency %s does not match account currency %s", entry.Currency, a.Currency))
	}
	entry.AccountID = a.ID
	a.Entries = append(a.Entries, *entry)
	a.Balance = a.sumEntries()
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// sumEntries recomputes the balance as the signed sum of all entries
func (a *Account) sumEntries() decimal.Decimal {
	total := decimal.Zero
	for i := range a.Entries {
		total = total.Add(a.Entries[i].Amount)
	}
	return total
}

// BalanceMoney returns the balance as a Money value
func (a *Account) BalanceMoney() valueobject.Money {
	return valueobject.MustNewMoney(a.Balance, a.Currency)
}

// Outstanding returns the debt still carried by a credit-convention account:
// the negation of its balance. Zero or negative means nothing is owed.
func (a *Account) Outstanding() decimal.Decimal {
	return a.Balance.Neg()
}

// Close marks the account closed. Fails when the account is already closed.
// Zero-balance enforcement is a rule of the settlement layer, not the ledger.
func (a *Account) Close(at time.Time) error {
	if a.IsClosed {
		return shared.NewDomainError("ACCOUNT_ALREADY_CLOSED",
			fmt.Sprintf("Account %s is already closed", a.ID))
	}
	a.IsClosed = true
	a.ClosedAt = &at
	a.UpdatedAt = time.Now().UTC()
	return nil
}
