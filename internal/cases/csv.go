package cases

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/savegress/caselens/pkg/models"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseAccountsCSV reads account rows from a header-driven CSV stream.
// Expected columns: account_number, account_holder, account_type,
// mobile, ip_address, email, ip_country, created_at. Malformed rows
// are skipped and reported, not fatal.
func parseAccountsCSV(caseID string, r io.Reader) ([]models.Account, []models.SkippedRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := indexColumns(header)
	if _, ok := columns["account_number"]; !ok {
		return nil, nil, fmt.Errorf("accounts CSV missing account_number column")
	}

	var accounts []models.Account
	var skipped []models.SkippedRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped = append(skipped, models.SkippedRecord{
				Reason: fmt.Sprintf("line %d: %v", line, err),
			})
			continue
		}

		number := field(row, columns, "account_number")
		if number == "" {
			skipped = append(skipped, models.SkippedRecord{
				Reason: fmt.Sprintf("line %d: empty account number", line),
			})
			continue
		}

		createdAt, err := parseDate(field(row, columns, "created_at"))
		if err != nil {
			skipped = append(skipped, models.SkippedRecord{
				Reason: fmt.Sprintf("line %d: %v", line, err),
			})
			continue
		}

		accountType := models.AccountType(strings.ToLower(field(row, columns, "account_type")))
		if accountType != models.AccountTypeBusiness {
			accountType = models.AccountTypePersonal
		}

		accounts = append(accounts, models.Account{
			AccountNumber: number,
			AccountHolder: field(row, columns, "account_holder"),
			AccountType:   accountType,
			Metadata: models.AccountMetadata{
				Mobile:    field(row, columns, "mobile"),
				IPAddress: field(row, columns, "ip_address"),
				Email:     field(row, columns, "email"),
				IPCountry: strings.ToUpper(field(row, columns, "ip_country")),
			},
			CreatedAt: createdAt,
			CaseID:    caseID,
		})
	}
	return accounts, skipped, nil
}

// parseTransactionsCSV reads transaction rows from a header-driven CSV
// stream. Expected columns: id, from_account, to_account, amount,
// date, ip_country. Rows with an unparseable date or a negative or
// malformed amount are skipped and reported.
func parseTransactionsCSV(caseID string, r io.Reader) ([]models.Transaction, []models.SkippedRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := indexColumns(header)
	for _, required := range []string{"from_account", "to_account", "amount", "date"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("transactions CSV missing %s column", required)
		}
	}

	var transactions []models.Transaction
	var skipped []models.SkippedRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped = append(skipped, models.SkippedRecord{
				Reason: fmt.Sprintf("line %d: %v", line, err),
			})
			continue
		}

		id := field(row, columns, "id")
		if id == "" {
			id = fmt.Sprintf("%s-txn-%d", caseID, line)
		}

		amount, err := decimal.NewFromString(field(row, columns, "amount"))
		if err != nil {
			skipped = append(skipped, models.SkippedRecord{
				TransactionID: id,
				Reason:        fmt.Sprintf("line %d: invalid amount", line),
			})
			continue
		}
		if amount.IsNegative() {
			skipped = append(skipped, models.SkippedRecord{
				TransactionID: id,
				Reason:        fmt.Sprintf("line %d: negative amount", line),
			})
			continue
		}

		date, err := parseDate(field(row, columns, "date"))
		if err != nil {
			skipped = append(skipped, models.SkippedRecord{
				TransactionID: id,
				Reason:        fmt.Sprintf("line %d: %v", line, err),
			})
			continue
		}

		transactions = append(transactions, models.Transaction{
			ID:          id,
			FromAccount: field(row, columns, "from_account"),
			ToAccount:   field(row, columns, "to_account"),
			Amount:      amount,
			Date:        date,
			Metadata: models.TransactionMetadata{
				IPCountry: strings.ToUpper(field(row, columns, "ip_country")),
			},
			CaseID: caseID,
		})
	}
	return transactions, skipped, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func field(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}
