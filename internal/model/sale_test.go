package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputePaymentStatus(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  PaymentStatus
	}{
		{"nothing paid", "100.00", "0", StatusUnpaid},
		{"partially paid", "100.00", "40.00", StatusPartial},
		{"one cent short", "100.00", "99.99", StatusPartial},
		{"exactly paid", "100.00", "100.00", StatusPaid},
		{"overpaid still reads paid", "100.00", "150.00", StatusPaid},
		{"zero total zero paid", "0", "0", StatusUnpaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputePaymentStatus(d(tc.total), d(tc.paid)))
		})
	}
}

func TestComputePaymentStatus_Idempotent(t *testing.T) {
	// Same inputs always map to the same status, however often recomputed.
	total, paid := d("250.50"), d("100.25")
	first := ComputePaymentStatus(total, paid)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComputePaymentStatus(total, paid))
	}
}

func TestSaleAmounts(t *testing.T) {
	sale := Sale{
		TotalAmount: d("300.00"),
		Payments: []Payment{
			{Amount: d("120.00")},
			{Amount: d("30.00")},
		},
	}
	assert.True(t, sale.AmountPaid().Equal(d("150.00")))
	assert.True(t, sale.AmountDue().Equal(d("150.00")))
}
