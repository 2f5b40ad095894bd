package domain

import (
	"sync"
)

// Vault is the in-memory transaction store: transactions, accounts and the
// uploaded batch list. It serializes writes; readers receive slices they may
// iterate but the pointed-to transactions are shared with the vault.
type Vault struct {
	mu           sync.RWMutex
	transactions []*Transaction
	accounts     map[string]*Account
	batches      []Batch
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		accounts: make(map[string]*Account),
	}
}

// EnsureAccount registers the account if it is new and returns its id.
func (v *Vault) EnsureAccount(bank, name, number string) string {
	id := AccountID(bank, name, number)

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.accounts[id]; !ok {
		v.accounts[id] = &Account{ID: id, Bank: bank, Name: name, Number: number}
	}
	return id
}

// Add appends transactions to the store.
func (v *Vault) Add(txs ...*Transaction) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transactions = append(v.transactions, txs...)
}

// AddBatch records an uploaded batch.
func (v *Vault) AddBatch(b Batch) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.batches = append(v.batches, b)
}

// Transactions returns the stored transactions in insertion order.
func (v *Vault) Transactions() []*Transaction {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]*Transaction, len(v.transactions))
	copy(out, v.transactions)
	return out
}

// Accounts returns a copy of the account table.
func (v *Vault) Accounts() map[string]Account {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]Account, len(v.accounts))
	for id, a := range v.accounts {
		out[id] = *a
	}
	return out
}

// Batches returns a copy of the uploaded batch list.
func (v *Vault) Batches() []Batch {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Batch, len(v.batches))
	copy(out, v.batches)
	return out
}

// RemoveBatch deletes every transaction imported with batchID together with
// the batch record, and reports how many transactions were removed.
func (v *Vault) RemoveBatch(batchID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	kept := v.transactions[:0]
	removed := 0
	for _, t := range v.transactions {
		if t.BatchID == batchID {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(v.transactions); i++ {
		v.transactions[i] = nil
	}
	v.transactions = kept

	batches := v.batches[:0]
	for _, b := range v.batches {
		if b.ID != batchID {
			batches = append(batches, b)
		}
	}
	v.batches = batches

	return removed
}

// Restore replaces the whole vault content, as when loading a snapshot.
func (v *Vault) Restore(txs []*Transaction, accounts map[string]Account, batches []Batch) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.transactions = txs
	v.accounts = make(map[string]*Account, len(accounts))
	for id, a := range accounts {
		a := a
		v.accounts[id] = &a
	}
	v.batches = batches
}

// Reset drops all transactions, accounts and batches.
func (v *Vault) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.transactions = nil
	v.accounts = make(map[string]*Account)
	v.batches = nil
}
