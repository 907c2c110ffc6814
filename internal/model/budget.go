package model

import "github.com/Veraticus/bookkeeper/internal/record"

// Budget holds the daily spending limit.
type Budget struct {
	Amount float64
	ID     int64
}

// Identity returns the budget's primary key.
func (b *Budget) Identity() int64 { return b.ID }

// SetIdentity sets the budget's primary key.
func (b *Budget) SetIdentity(id int64) { b.ID = id }

// Weekly returns the limit for a seven day window.
func (b *Budget) Weekly() float64 { return b.Amount * 7 }

// Monthly returns the limit for a thirty day window.
func (b *Budget) Monthly() float64 { return b.Amount * 30 }

// BudgetDescriptor declares the stored fields of Budget.
var BudgetDescriptor = record.Descriptor[Budget]{
	Name: "Budget",
	Fields: []record.Field[Budget]{
		record.RealField("amount",
			func(b *Budget) float64 { return b.Amount },
			func(b *Budget, v float64) { b.Amount = v }),
	},
}
