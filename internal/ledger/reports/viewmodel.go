package reports

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatMinor renders a minor-unit amount as a grouped decimal string,
// e.g. 1234567 -> "12,345.67".
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return sign + amountPrinter.Sprintf("%d.%02d", minor/100, minor%100)
}

// WriteTrialBalanceCSV streams the trial balance as CSV.
func WriteTrialBalanceCSV(w io.Writer, tb TrialBalance) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"account_code", "account_name", "type", "debit_balance", "credit_balance"}); err != nil {
		return err
	}
	for _, row := range tb.Rows {
		record := []string{
			row.Code,
			row.Name,
			string(row.Type),
			FormatMinor(row.BalanceDebitMinor),
			FormatMinor(row.BalanceCreditMinor),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	totals := []string{"TOTAL", "", "", FormatMinor(tb.TotalDebitMinor), FormatMinor(tb.TotalCreditMinor)}
	if err := writer.Write(totals); err != nil {
		return err
	}
	if err := writer.Write([]string{"is_balanced", strconv.FormatBool(tb.IsBalanced), "", "", ""}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
