package ledger

import (
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"ledgerReplay/internal/model"
)

// Ledger maps normalized addresses to reconstructed accounts.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*model.Account
}

func New() *Ledger {
	return &Ledger{accounts: make(map[string]*model.Account)}
}

// NormalizeAddress returns the canonical ledger key for an address string.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

// Key returns the canonical ledger key for an address.
func Key(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// Transfer debits amount from one account and credits it to another.
// Both transaction counts are incremented, including for self transfers.
func (l *Ledger) Transfer(from, to string, amount *big.Int) {
	if amount == nil {
		amount = new(big.Int)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sender := l.account(from)
	sender.Balance.Sub(sender.Balance, amount)
	sender.TransactionCount++

	receiver := l.account(to)
	receiver.Balance.Add(receiver.Balance, amount)
	receiver.TransactionCount++
}

// account must be called with mu held.
func (l *Ledger) account(address string) *model.Account {
	acc, ok := l.accounts[address]
	if !ok {
		acc = &model.Account{Balance: new(big.Int)}
		l.accounts[address] = acc
	}
	return acc
}

// HasTxHash reports whether the account already carries a cached transaction hash.
func (l *Ledger) HasTxHash(address string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[address]
	return ok && acc.CachedTxHash != ""
}

// CacheTxHash sets the cached transaction hash if the account exists and has none yet.
func (l *Ledger) CacheTxHash(address, txHash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[address]
	if !ok || acc.CachedTxHash != "" {
		return false
	}
	acc.CachedTxHash = txHash
	return true
}

// Get returns a copy of the account for address.
func (l *Ledger) Get(address string) (model.Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[address]
	if !ok {
		return model.Account{}, false
	}
	return model.Account{
		Balance:          new(big.Int).Set(acc.Balance),
		TransactionCount: acc.TransactionCount,
		CachedTxHash:     acc.CachedTxHash,
	}, true
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}

// Sum returns the sum of all balances.
func (l *Ledger) Sum() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := new(big.Int)
	for _, acc := range l.accounts {
		total.Add(total, acc.Balance)
	}
	return total
}

// Rows returns a copy of every account as report rows, sorted by address.
func (l *Ledger) Rows() []model.ReportRow {
	l.mu.RLock()
	rows := make([]model.ReportRow, 0, len(l.accounts))
	for address, acc := range l.accounts {
		rows = append(rows, model.ReportRow{
			Address:          address,
			CachedTxHash:     acc.CachedTxHash,
			Balance:          new(big.Int).Set(acc.Balance),
			TransactionCount: acc.TransactionCount,
		})
	}
	l.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].Address < rows[j].Address })
	return rows
}

// Restore replaces the ledger contents with the given rows.
func (l *Ledger) Restore(rows []model.ReportRow) {
	accounts := make(map[string]*model.Account, len(rows))
	for _, row := range rows {
		balance := new(big.Int)
		if row.Balance != nil {
			balance.Set(row.Balance)
		}
		key := NormalizeAddress(row.Address)
		if existing, ok := accounts[key]; ok {
			existing.Balance.Add(existing.Balance, balance)
			existing.TransactionCount += row.TransactionCount
			if existing.CachedTxHash == "" {
				existing.CachedTxHash = row.CachedTxHash
			}
			continue
		}
		accounts[key] = &model.Account{
			Balance:          balance,
			TransactionCount: row.TransactionCount,
			CachedTxHash:     row.CachedTxHash,
		}
	}

	l.mu.Lock()
	l.accounts = accounts
	l.mu.Unlock()
}
