package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/Veraticus/bookkeeper/internal/record"
)

// Expense is a single spending entry.
type Expense struct {
	WasteDate time.Time // When the money was spent
	AddedDate time.Time // When the entry was recorded
	Comment   string
	Amount    float64
	Category  int64 // Category.ID
	ID        int64
}

// Identity returns the expense's primary key.
func (e *Expense) Identity() int64 { return e.ID }

// SetIdentity sets the expense's primary key.
func (e *Expense) SetIdentity(id int64) { e.ID = id }

// GenerateHash creates a hash for duplicate detection during imports.
func (e *Expense) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s",
		e.WasteDate.Format("2006-01-02"),
		e.Amount,
		e.Comment)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ExpenseDescriptor declares the stored fields of Expense.
var ExpenseDescriptor = record.Descriptor[Expense]{
	Name: "Expense",
	Fields: []record.Field[Expense]{
		record.RealField("amount",
			func(e *Expense) float64 { return e.Amount },
			func(e *Expense, v float64) { e.Amount = v }),
		record.IntField("category",
			func(e *Expense) int64 { return e.Category },
			func(e *Expense, v int64) { e.Category = v }),
		record.TimeField("waste_date",
			func(e *Expense) time.Time { return e.WasteDate },
			func(e *Expense, v time.Time) { e.WasteDate = v }),
		record.TimeField("added_date",
			func(e *Expense) time.Time { return e.AddedDate },
			func(e *Expense, v time.Time) { e.AddedDate = v }),
		record.TextField("comment",
			func(e *Expense) string { return e.Comment },
			func(e *Expense, v string) { e.Comment = v }),
	},
}
