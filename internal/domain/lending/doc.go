// Package lending provides domain models for consumer loan origination and servicing.
//
// This package implements the loan ledger bounded context, which is responsible for:
//   - Tariffs: the bank's loan products with rate, amount/term bounds and acceptance rules
//   - Loan applications and their approval state machine
//   - Payment schedule calculation (annuity and standard amortization)
//   - The double-entry ledger of typed accounts owned by each loan
//   - Interest accrual derived from a schedule's per-period interest figures
//   - The bank calendar that batch settlement advances day by day
//
// Key Aggregates:
//   - Tariff: loan product definition with acceptance rule
//   - LoanApplication: application lifecycle up to contracting
//   - Loan: contracted loan owning a schedule and five ledger accounts
//   - BankCalendar: the bank's single notion of "today"
//
// The settlement orchestration that coordinates these models lives in the
// application layer; this package holds only the invariant-preserving logic.
package lending
