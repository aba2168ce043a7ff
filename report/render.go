package report

import (
	"bytes"
	"html/template"
)

// TrialBalanceDoc is the print-ready trial balance. Amounts arrive already
// formatted so the template stays free of money arithmetic.
type TrialBalanceDoc struct {
	Company     string
	AsOf        string
	Rows        []TrialBalanceLine
	TotalDebit  string
	TotalCredit string
	Balanced    bool
}

// TrialBalanceLine is one account row in the document.
type TrialBalanceLine struct {
	Code   string
	Name   string
	Debit  string
	Credit string
}

var trialBalanceTmpl = template.Must(template.New("trial_balance").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Trial Balance {{.AsOf}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; margin: 2em; }
h1 { font-size: 18px; margin-bottom: 0; }
p.meta { color: #555; margin-top: 4px; }
table { width: 100%; border-collapse: collapse; margin-top: 1em; }
th, td { padding: 4px 8px; border-bottom: 1px solid #ddd; text-align: left; }
td.amount, th.amount { text-align: right; font-variant-numeric: tabular-nums; }
tr.total td { border-top: 2px solid #333; font-weight: bold; }
p.warn { color: #b00020; font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Company}}</h1>
<p class="meta">Trial balance as of {{.AsOf}}</p>
{{if not .Balanced}}<p class="warn">Books are out of balance.</p>{{end}}
<table>
<thead>
<tr><th>Account</th><th>Name</th><th class="amount">Debit</th><th class="amount">Credit</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Code}}</td><td>{{.Name}}</td><td class="amount">{{.Debit}}</td><td class="amount">{{.Credit}}</td></tr>
{{end}}<tr class="total"><td></td><td>Total</td><td class="amount">{{.TotalDebit}}</td><td class="amount">{{.TotalCredit}}</td></tr>
</tbody>
</table>
</body>
</html>`))

// RenderTrialBalanceHTML produces the HTML document handed to the PDF
// converter.
func RenderTrialBalanceHTML(doc TrialBalanceDoc) (string, error) {
	buf := &bytes.Buffer{}
	if err := trialBalanceTmpl.Execute(buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
