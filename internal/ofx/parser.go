// Package ofx reads bank and credit card statements in OFX/QFX format and
// turns their debits into expenses.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/Veraticus/bookkeeper/internal/model"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

var genericDescriptions = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

// Entry is one statement line. Amount keeps the statement's sign, so
// money leaving the account is negative.
type Entry struct {
	Posted  time.Time
	FitID   string
	Account string
	Payee   string
	Type    string
	Amount  float64
}

// IsDebit reports whether the entry moved money out of the account.
func (e Entry) IsDebit() bool {
	return e.Amount < 0
}

// Expense converts a debit into an expense booked on category.
func (e Entry) Expense(category int64) model.Expense {
	amount := e.Amount
	if amount < 0 {
		amount = -amount
	}
	return model.Expense{
		Amount:    amount,
		Category:  category,
		WasteDate: e.Posted.UTC(),
		Comment:   e.Payee,
	}
}

// Expenses converts the debits among entries into expenses on category.
// Credits are skipped.
func Expenses(entries []Entry, category int64) []model.Expense {
	var out []model.Expense
	for _, e := range entries {
		if e.IsDebit() {
			out = append(out, e.Expense(category))
		}
	}
	return out
}

// Parser reads OFX/QFX statements.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile returns every entry of every bank and credit card statement in
// the file, in file order.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]Entry, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			entries = append(entries, p.statementEntries(string(stmt.BankAcctFrom.AcctID), stmt.BankTranList)...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			entries = append(entries, p.statementEntries(string(stmt.CCAcctFrom.AcctID), stmt.BankTranList)...)
		}
	}

	slog.Info("parsed OFX file",
		"entries", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return entries, nil
}

// Accounts returns the distinct account ids found in the file.
func (p *Parser) Accounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id ofxgo.String) {
		if id != "" && !seen[string(id)] {
			seen[string(id)] = true
			accounts = append(accounts, string(id))
		}
	}
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(stmt.BankAcctFrom.AcctID)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(stmt.CCAcctFrom.AcctID)
		}
	}
	return accounts, nil
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// preprocess repairs formatting mistakes common in bank exports.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	// SGML files sometimes lose the closing bracket of a bare opening tag.
	return openTagPattern.ReplaceAllString(content, "$1>")
}

func (p *Parser) statementEntries(account string, list *ofxgo.TransactionList) []Entry {
	if list == nil {
		return nil
	}

	entries := make([]Entry, 0, len(list.Transactions))
	for _, tx := range list.Transactions {
		amount, _ := tx.TrnAmt.Float64()
		entries = append(entries, Entry{
			Posted:  tx.DtPosted.Time,
			FitID:   string(tx.FiTID),
			Account: account,
			Payee:   payeeName(tx),
			Type:    tx.TrnType.String(),
			Amount:  amount,
		})
	}
	return entries
}

// payeeName picks the most readable merchant description of a transaction.
func payeeName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && genericDescriptions[strings.ToUpper(name)] {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}
