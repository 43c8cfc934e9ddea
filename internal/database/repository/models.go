package repository

import "time"

// Direction of money movement on a transaction.
const (
	DirectionExpense = 0
	DirectionIncome  = 1
)

// Debt kinds. A debt is money owed to someone else, a credit is money
// someone else owes the wallet owner.
const (
	DebtTypeDebt   = 0
	DebtTypeCredit = 1
)

// Wallet represents a wallet row. StartMoney is in the wallet currency's
// minor units.
type Wallet struct {
	ID           string
	Name         string
	Icon         *string
	Currency     string
	StartMoney   int64
	CountInTotal bool
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Category represents a category row. Tag is set on hidden system
// categories only and is unique among them.
type Category struct {
	ID         string
	ParentID   *string
	Name       string
	Icon       *string
	Tag        *string
	System     bool
	ShowReport bool
	SortOrder  int
}

// Event represents an event row.
type Event struct {
	ID        string
	Name      string
	Icon      *string
	StartDate time.Time
	EndDate   time.Time
	Note      *string
}

// Place represents a place row. Name is unique.
type Place struct {
	ID        string
	Name      string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

// Debt represents a debt row.
type Debt struct {
	ID             string
	DebtType       int
	Icon           *string
	Description    string
	Date           time.Time
	ExpirationDate *time.Time
	WalletID       string
	PlaceID        *string
	Money          int64
	Archived       bool
}

// Budget represents a budget row plus its wallet links.
type Budget struct {
	ID         string
	BudgetType int
	CategoryID *string
	StartDate  time.Time
	EndDate    time.Time
	Money      int64
	Currency   string
	WalletIDs  []string
}

// Saving represents a saving row.
type Saving struct {
	ID          string
	Description string
	Icon        *string
	StartMoney  int64
	EndMoney    int64
	WalletID    string
	EndDate     *time.Time
	Complete    bool
}

// RecurringTransaction is the transaction template variant. Rule holds
// the encoded recurrence rule; LastOccurrence/NextOccurrence form the
// materialization cursor. A nil NextOccurrence means exhausted or frozen.
type RecurringTransaction struct {
	ID             string
	Money          int64
	Description    string
	CategoryID     string
	Direction      int
	WalletID       string
	PlaceID        *string
	EventID        *string
	Rule           string
	LastOccurrence time.Time
	NextOccurrence *time.Time
}

// RecurringTransfer is the transfer template variant.
type RecurringTransfer struct {
	ID             string
	Description    string
	WalletFromID   string
	WalletToID     string
	Money          int64
	MoneyTax       int64
	PlaceID        *string
	EventID        *string
	Rule           string
	LastOccurrence time.Time
	NextOccurrence *time.Time
}

// TransactionKind discriminates what a transaction is linked to.
type TransactionKind int

const (
	KindStandard TransactionKind = iota
	KindDebt
	KindSaving
	KindTransfer
)

// TransactionLink is a tagged variant: a transaction is standard, or it
// settles a debt, or it feeds a saving, or it is one leg of a transfer.
// The zero value is a standard link.
type TransactionLink struct {
	kind     TransactionKind
	targetID string
}

func StandardLink() TransactionLink          { return TransactionLink{} }
func DebtLink(debtID string) TransactionLink { return TransactionLink{kind: KindDebt, targetID: debtID} }
func SavingLink(savingID string) TransactionLink {
	return TransactionLink{kind: KindSaving, targetID: savingID}
}
func TransferLink() TransactionLink { return TransactionLink{kind: KindTransfer} }

func (l TransactionLink) Kind() TransactionKind { return l.kind }

// DebtID returns the linked debt id when Kind is KindDebt.
func (l TransactionLink) DebtID() (string, bool) {
	return l.targetID, l.kind == KindDebt
}

// SavingID returns the linked saving id when Kind is KindSaving.
func (l TransactionLink) SavingID() (string, bool) {
	return l.targetID, l.kind == KindSaving
}

// Transaction represents a transaction row (a materialized ledger entry).
type Transaction struct {
	ID           string
	Money        int64
	Date         time.Time
	Description  string
	CategoryID   string
	Direction    int
	Link         TransactionLink
	WalletID     string
	PlaceID      *string
	EventID      *string
	RecurrenceID *string
	Confirmed    bool
	CountInTotal bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Transfer represents a transfer row linking two or three transactions.
type Transfer struct {
	ID                string
	Description       string
	Date              time.Time
	TransactionFromID string
	TransactionToID   string
	TransactionTaxID  *string
	RecurrenceID      *string
}
