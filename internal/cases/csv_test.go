package cases

import (
	"strings"
	"testing"
	"time"

	"github.com/savegress/caselens/pkg/models"
	"github.com/shopspring/decimal"
)

func TestParseAccountsCSV(t *testing.T) {
	input := `account_number,account_holder,account_type,email,ip_country,created_at
ACC1,Jane Roe,business,jane@example.com,ng,2024-01-15
ACC2,John Doe,personal,,US,2024-02-01T09:30:00
,Empty Number,personal,,US,2024-01-01
ACC3,Bad Date,personal,,US,not-a-date
`

	accounts, skipped, err := parseAccountsCSV("case-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseAccountsCSV failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d: %+v", len(accounts), accounts)
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped rows, got %d: %+v", len(skipped), skipped)
	}

	acc := accounts[0]
	if acc.AccountNumber != "ACC1" || acc.AccountType != models.AccountTypeBusiness {
		t.Errorf("unexpected first account: %+v", acc)
	}
	if acc.Metadata.IPCountry != "NG" {
		t.Errorf("expected country uppercased, got %s", acc.Metadata.IPCountry)
	}
	if acc.CaseID != "case-1" {
		t.Errorf("expected case id stamped, got %s", acc.CaseID)
	}
	if !acc.CreatedAt.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected created at %v", acc.CreatedAt)
	}

	if accounts[1].AccountType != models.AccountTypePersonal {
		t.Errorf("expected personal type, got %s", accounts[1].AccountType)
	}
}

func TestParseAccountsCSV_UnknownTypeDefaultsPersonal(t *testing.T) {
	input := `account_number,account_type,created_at
ACC1,corporate,2024-01-15
`
	accounts, _, err := parseAccountsCSV("case-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseAccountsCSV failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].AccountType != models.AccountTypePersonal {
		t.Errorf("expected unknown type to default to personal: %+v", accounts)
	}
}

func TestParseAccountsCSV_MissingRequiredColumn(t *testing.T) {
	input := `holder,created_at
Jane Roe,2024-01-15
`
	if _, _, err := parseAccountsCSV("case-1", strings.NewReader(input)); err == nil {
		t.Error("expected error for missing account_number column")
	}
}

func TestParseTransactionsCSV(t *testing.T) {
	input := `id,from_account,to_account,amount,date,ip_country
txn-1,ACC1,ACC2,9500.50,2024-03-15 10:00:00,ir
,ACC2,ACC3,100,2024-03-15,
txn-bad,ACC1,ACC2,not-a-number,2024-03-15,
txn-neg,ACC1,ACC2,-50,2024-03-15,
txn-nodate,ACC1,ACC2,100,eventually,
`

	transactions, skipped, err := parseTransactionsCSV("case-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseTransactionsCSV failed: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d: %+v", len(transactions), transactions)
	}
	if len(skipped) != 3 {
		t.Fatalf("expected 3 skipped rows, got %d: %+v", len(skipped), skipped)
	}

	first := transactions[0]
	if first.ID != "txn-1" {
		t.Errorf("unexpected id %s", first.ID)
	}
	if !first.Amount.Equal(decimal.RequireFromString("9500.50")) {
		t.Errorf("unexpected amount %s", first.Amount)
	}
	if first.Metadata.IPCountry != "IR" {
		t.Errorf("expected country uppercased, got %s", first.Metadata.IPCountry)
	}

	// Missing id gets a generated one tied to the case and line.
	if transactions[1].ID != "case-1-txn-3" {
		t.Errorf("unexpected generated id %s", transactions[1].ID)
	}

	for _, s := range skipped {
		if s.Reason == "" {
			t.Errorf("skipped record without reason: %+v", s)
		}
	}
}

func TestParseTransactionsCSV_MissingRequiredColumn(t *testing.T) {
	input := `from_account,to_account,amount
ACC1,ACC2,100
`
	if _, _, err := parseTransactionsCSV("case-1", strings.NewReader(input)); err == nil {
		t.Error("expected error for missing date column")
	}
}

func TestParseDate_Layouts(t *testing.T) {
	cases := []string{
		"2024-03-15T10:00:00Z",
		"2024-03-15 10:00:00",
		"2024-03-15T10:00:00",
		"2024-03-15",
	}
	for _, value := range cases {
		if _, err := parseDate(value); err != nil {
			t.Errorf("parseDate(%q) failed: %v", value, err)
		}
	}
	if _, err := parseDate(""); err == nil {
		t.Error("expected error for empty date")
	}
}
