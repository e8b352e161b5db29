package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mstore/internal/core"
	"mstore/internal/ledger"
	"mstore/internal/report"
)

func TestToCSVPurchase(t *testing.T) {
	records := []core.Record{
		{ItemName: "Rice", Quantity: "10", Price: "500", PurchasedFrom: "Farm A", Date: "2024-03-05"},
		{ItemName: "Oil", Quantity: "1", Price: "90.50", Date: "2024-03-05"},
	}

	want := `"Item Name","Quantity","Price (Rs)","Purchased From","Date"` + "\n" +
		`"Rice","10","500","Farm A","2024-03-05"` + "\n" +
		`"Oil","1","90.50","","2024-03-05"`
	assert.Equal(t, want, ToCSV(records, core.Purchase))
}

func TestToCSVSale(t *testing.T) {
	records := []core.Record{
		{ItemName: "Rice", Quantity: "4", Price: "300", SoldTo: "Shop B", Recovery: "100", Date: "2024-03-05"},
		{ItemName: "Salt", Quantity: "2", Price: "abc", Date: "2024-03-06"},
	}

	want := `"Item Name","Quantity","Price (Rs)","Sold To","Recovery (Rs)","Date"` + "\n" +
		`"Rice","4","300","Shop B","100","2024-03-05"` + "\n" +
		`"Salt","2","abc","","","2024-03-06"`
	assert.Equal(t, want, ToCSV(records, core.Sale))
}

func TestToCSVHeaderOnly(t *testing.T) {
	assert.Equal(t, `"Item Name","Quantity","Price (Rs)","Purchased From","Date"`, ToCSV(nil, core.Purchase))
}

func TestToCSVRoundTrip(t *testing.T) {
	l := ledger.New(core.Sale)
	inputs := []core.Fields{
		{ItemName: "Basmati Rice", Quantity: "4", Price: "300.25", Counterparty: "Shop B", Recovery: "100"},
		{ItemName: "Salt", Quantity: "2", Price: "20"},
	}
	for _, f := range inputs {
		_, err := l.AddRecord("2024-03-05", f)
		require.NoError(t, err)
	}
	records := l.Records("2024-03-05")

	parsed, err := csv.NewReader(strings.NewReader(ToCSV(records, core.Sale))).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, len(records)+1)
	assert.Equal(t, Header(core.Sale), parsed[0])
	for i, r := range records {
		assert.Equal(t, Row(r, core.Sale), parsed[i+1])
	}
}

func TestFilename(t *testing.T) {
	ref := time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		kind   core.Kind
		period report.Period
		want   string
	}{
		{core.Purchase, report.Daily, "purchase-2024-03-06.csv"},
		{core.Sale, report.Weekly, "sale-Weekly.csv"},
		{core.Sale, report.Monthly, "sale-Monthly.csv"},
		{core.Purchase, report.Overall, "purchase-Overall.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.kind, tt.period, ref))
		})
	}
}

func TestDashboardCSV(t *testing.T) {
	b := ledger.NewBook()
	_, err := b.Purchases.AddRecord("2024-03-05", core.Fields{ItemName: "Rice", Quantity: "10", Price: "500"})
	require.NoError(t, err)
	_, err = b.Sales.AddRecord("2024-03-05", core.Fields{ItemName: "Rice", Quantity: "4", Price: "300"})
	require.NoError(t, err)

	out := DashboardCSV(report.Dashboard(b, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, `"daily","500","10","300","4","-200"`, lines[1])
	assert.Equal(t, `"overall","500","10","300","4","-200"`, lines[4])
}

func TestCounterpartiesCSV(t *testing.T) {
	l := ledger.New(core.Sale)
	_, err := l.AddRecord("2024-03-05", core.Fields{ItemName: "Rice", Quantity: "2", Price: "100", Counterparty: "Acme", Recovery: "20"})
	require.NoError(t, err)

	out := CounterpartiesCSV(report.SortedCounterparties(report.AggregateByCounterparty(l)), core.Sale)
	assert.Equal(t,
		`"Name","Total Quantity","Total Amount (Rs)","Total Recovery (Rs)","Remaining (Rs)"`+"\n"+`"Acme","2","100","20","80"`,
		out)
}
