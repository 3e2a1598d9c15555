package domain

import "time"

// LedgerEntry amounts are stored in minor units (cents).
type LedgerEntry struct {
	ID          int64     `json:"id"`
	EntryDate   time.Time `json:"entryDate"`
	Account     string    `json:"account"`
	Description string    `json:"description"`
	Debit       int64     `json:"debit"`
	Credit      int64     `json:"credit"`
	Currency    string    `json:"currency"`
}

type LedgerTotals struct {
	Debit   int64 `json:"debit"`
	Credit  int64 `json:"credit"`
	Balance int64 `json:"balance"`
}

// LedgerSnapshot is the read-only view served to the dashboard. There is no
// mutation path for ledger data in this service.
type LedgerSnapshot struct {
	Entries []LedgerEntry `json:"entries"`
	Totals  LedgerTotals  `json:"totals"`
	AsOf    time.Time     `json:"asOf"`
}
