package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mstore/internal/core"
)

func TestAddRecord(t *testing.T) {
	l := New(core.Sale)

	r, err := l.AddRecord("2024-03-05", core.Fields{ItemName: "Rice", Quantity: "4", Price: "300", Counterparty: "Shop B", Recovery: "100"})
	require.NoError(t, err)
	assert.Equal(t, core.Record{ItemName: "Rice", Quantity: "4", Price: "300", SoldTo: "Shop B", Recovery: "100", Date: "2024-03-05"}, r)

	_, err = l.AddRecord("2024-03-01", core.Fields{ItemName: "Oil", Quantity: "1", Price: "90"})
	require.NoError(t, err)
	_, err = l.AddRecord("2024-03-05", core.Fields{ItemName: "Salt", Quantity: "2", Price: "20"})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-03-05", "2024-03-01"}, l.Keys())
	assert.Len(t, l.Records("2024-03-05"), 2)
	assert.Equal(t, "Salt", l.Records("2024-03-05")[1].ItemName)
	assert.Equal(t, 3, l.Len())
}

func TestAddRecordRejectsMissingFields(t *testing.T) {
	l := New(core.Purchase)

	tests := []struct {
		name   string
		fields core.Fields
		want   error
	}{
		{"missing item name", core.Fields{Quantity: "1", Price: "1"}, core.ErrEmptyItemName},
		{"missing quantity", core.Fields{ItemName: "Rice", Price: "1"}, core.ErrEmptyQuantity},
		{"missing price", core.Fields{ItemName: "Rice", Quantity: "1"}, core.ErrEmptyPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.AddRecord("2024-03-05", tt.fields)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.False(t, l.Has("2024-03-05"), "rejected add must not create a bucket")

	_, err := l.AddRecord("2024-13-01", core.Fields{ItemName: "Rice", Quantity: "1", Price: "1"})
	assert.ErrorIs(t, err, core.ErrInvalidDateKey)
}

func TestDeleteRecord(t *testing.T) {
	l := New(core.Purchase)
	_, err := l.AddRecord("2024-03-05", core.Fields{ItemName: "Rice", Quantity: "10", Price: "500"})
	require.NoError(t, err)

	_, err = l.DeleteRecord("2024-03-06", 0)
	assert.ErrorIs(t, err, ErrNoBucket)
	_, err = l.DeleteRecord("2024-03-05", 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = l.DeleteRecord("2024-03-05", -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	removed, err := l.DeleteRecord("2024-03-05", 0)
	require.NoError(t, err)
	assert.Equal(t, "Rice", removed.ItemName)

	// The emptied bucket survives the delete.
	assert.True(t, l.Has("2024-03-05"))
	assert.Empty(t, l.Records("2024-03-05"))
	assert.Equal(t, []string{"2024-03-05"}, l.Keys())
}

func TestRecordsReturnsCopy(t *testing.T) {
	l := New(core.Purchase)
	_, _ = l.AddRecord("2024-03-05", core.Fields{ItemName: "Rice", Quantity: "10", Price: "500"})

	got := l.Records("2024-03-05")
	got[0].ItemName = "changed"
	assert.Equal(t, "Rice", l.Records("2024-03-05")[0].ItemName)
}

func TestJSONPreservesKeyOrder(t *testing.T) {
	l := New(core.Purchase)
	for _, key := range []string{"2024-03-09", "2024-01-02", "2024-03-01"} {
		_, err := l.AddRecord(key, core.Fields{ItemName: "x", Quantity: "1", Price: "1"})
		require.NoError(t, err)
	}
	_, err := l.DeleteRecord("2024-01-02", 0)
	require.NoError(t, err)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2024-01-02":[]`)

	decoded := New(core.Purchase)
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, l.Keys(), decoded.Keys())
	assert.Equal(t, l.Records("2024-03-09"), decoded.Records("2024-03-09"))
	assert.True(t, decoded.Has("2024-01-02"))
}

func TestUnmarshalStampsDate(t *testing.T) {
	// Blobs written by older clients carry no date on their records.
	data := `{"2024-03-05":[{"itemName":"Rice","quantity":"10","price":"500","purchasedFrom":"Farm A"}]}`

	l := New(core.Purchase)
	require.NoError(t, json.Unmarshal([]byte(data), l))
	assert.Equal(t, "2024-03-05", l.Records("2024-03-05")[0].Date)

	assert.Error(t, json.Unmarshal([]byte(`{"not-a-date":[]}`), New(core.Purchase)))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), New(core.Purchase)))
}

func TestBook(t *testing.T) {
	b := NewBook()
	assert.True(t, b.Empty())

	l, err := b.Ledger(core.Sale)
	require.NoError(t, err)
	assert.Same(t, b.Sales, l)

	_, err = b.Ledger(core.Kind("stats"))
	assert.ErrorIs(t, err, core.ErrUnknownKind)

	_, _ = b.Purchases.AddRecord("2024-03-05", core.Fields{ItemName: "Rice", Quantity: "10", Price: "500"})
	c := b.Clone()
	_, _ = b.Purchases.DeleteRecord("2024-03-05", 0)
	assert.Equal(t, 1, c.Purchases.Len())
	assert.False(t, b.Empty())
}
