package reportcli

import (
	"fmt"
	"strconv"
	"strings"

	"mstore/internal/core"
	"mstore/internal/report"
)

// cell escapes text for a markdown table cell.
func cell(s string) string {
	if s == "" {
		return " "
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func table(b *strings.Builder, head []string, rows [][]string) {
	b.WriteString("| " + strings.Join(head, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(head)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cell(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func DashboardMarkdown(rows []report.DashboardRow, m MoneyFormatter, today string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dashboard %s\n\n", today)
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Name,
			m.Format(r.Purchases.Amount),
			strconv.FormatInt(r.Purchases.Items, 10),
			m.Format(r.Sales.Amount),
			strconv.FormatInt(r.Sales.Items, 10),
			m.Format(r.Profit),
		})
	}
	table(&b, []string{"Period", "Purchases", "Items", "Sales", "Items", "Profit"}, out)
	return b.String()
}

func StatsMarkdown(kind core.Kind, p report.Period, st report.Stats, m MoneyFormatter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", strings.ToUpper(p.String()[:1])+p.String()[1:], kind.StorageKey())
	fmt.Fprintf(&b, "- Amount: %s\n- Items: %d\n", m.Format(st.Amount), st.Items)
	return b.String()
}

func RecordsMarkdown(kind core.Kind, dateKey string, records []core.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", kind.StorageKey(), dateKey)
	if len(records) == 0 {
		b.WriteString("No records.\n")
		return b.String()
	}
	head := []string{"#", "Item", "Quantity", "Price", kind.CounterpartyLabel()}
	if kind == core.Sale {
		head = append(head, "Recovery")
	}
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		row := []string{strconv.Itoa(i), r.ItemName, r.Quantity, r.Price, r.Counterparty()}
		if kind == core.Sale {
			row = append(row, r.Recovery)
		}
		rows = append(rows, row)
	}
	table(&b, head, rows)
	return b.String()
}

func CounterpartiesMarkdown(kind core.Kind, summaries []*report.CounterpartySummary, m MoneyFormatter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", kind.CounterpartyLabel())
	if len(summaries) == 0 {
		b.WriteString("No records.\n")
		return b.String()
	}
	head := []string{"Name", "Quantity", "Amount"}
	if kind == core.Sale {
		head = append(head, "Recovered", "Remaining")
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		row := []string{s.Name, strconv.FormatInt(s.TotalQuantity, 10), m.Format(s.TotalAmount)}
		if s.TotalRecovery != nil {
			row = append(row, m.Format(*s.TotalRecovery), m.Format(s.Remaining()))
		}
		rows = append(rows, row)
	}
	table(&b, head, rows)
	return b.String()
}

// MonthMarkdown lists the days of a month that have records.
func MonthMarkdown(kind core.Kind, prefix string, days []report.Day, m MoneyFormatter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", kind.StorageKey(), prefix)
	var rows [][]string
	for _, d := range days {
		if len(d.Records) == 0 {
			continue
		}
		rows = append(rows, []string{d.DateKey, strconv.Itoa(len(d.Records)), strconv.FormatInt(d.Stats.Items, 10), m.Format(d.Stats.Amount)})
	}
	if len(rows) == 0 {
		b.WriteString("No records.\n")
		return b.String()
	}
	table(&b, []string{"Date", "Records", "Items", "Amount"}, rows)
	return b.String()
}
