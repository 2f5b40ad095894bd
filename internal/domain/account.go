package domain

import "time"

// Account is a bank account or card that transactions belong to.
type Account struct {
	ID     string `json:"id"`
	Bank   string `json:"bank"`
	Name   string `json:"name"`
	Number string `json:"number,omitempty"`
}

// AccountID builds the stable account key "bank:number", falling back to the name.
func AccountID(bank, name, number string) string {
	key := number
	if key == "" {
		key = name
	}
	return bank + ":" + key
}

// Batch describes one uploaded export file.
type Batch struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Bank       string    `json:"bank"`
	ImportedAt time.Time `json:"imported_at"`
	Count      int       `json:"count"`
}
