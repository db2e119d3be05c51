package store

// Ledger is a single non-negative balance. Amounts are expected to be
// non-negative. Not safe for concurrent use on its own; Store
// serializes access.
type Ledger struct {
	balance int
}

func NewLedger(initial int) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{balance: initial}
}

// Credit adds amount and returns the new balance.
func (l *Ledger) Credit(amount int) int {
	l.balance += amount
	return l.balance
}

// Debit subtracts amount and returns the new balance. If amount
// exceeds the balance, nothing changes and ErrInsufficientFunds is
// returned; the check happens before any mutation.
func (l *Ledger) Debit(amount int) (int, error) {
	if amount > l.balance {
		return l.balance, ErrInsufficientFunds
	}
	l.balance -= amount
	return l.balance, nil
}

func (l *Ledger) Balance() int {
	return l.balance
}
