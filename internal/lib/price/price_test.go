package price

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "dollar integer", input: "$25", want: "25"},
		{name: "thousands separator", input: "$1,250", want: "1250"},
		{name: "cents", input: "$49.99", want: "49.99"},
		{name: "no currency sign", input: "150", want: "150"},
		{name: "surrounding spaces", input: "  $ 75 ", want: "75"},
		{name: "empty", input: "", wantErr: true},
		{name: "only sign", input: "$", wantErr: true},
		{name: "text", input: "free", wantErr: true},
		{name: "negative", input: "-$10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRevenue(t *testing.T) {
	assert.True(t, decimal.NewFromInt(75).Equal(Revenue("$25", 3)))
	assert.True(t, decimal.Zero.Equal(Revenue("$25", 0)))
	assert.True(t, decimal.Zero.Equal(Revenue("broken", 4)))
	assert.True(t, decimal.RequireFromString("99.98").Equal(Revenue("$49.99", 2)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$150", Format(decimal.NewFromInt(150)))
	assert.Equal(t, "$12.50", Format(decimal.RequireFromString("12.5")))
}

func TestProfitability(t *testing.T) {
	tests := []struct {
		name                             string
		revenue                          string
		wantCost, wantProfit, wantMargin string
	}{
		{name: "regular", revenue: "150", wantCost: "90", wantProfit: "60", wantMargin: "40"},
		{name: "cents", revenue: "49.99", wantCost: "29.994", wantProfit: "19.996", wantMargin: "40"},
		{name: "no revenue", revenue: "0", wantCost: "0", wantProfit: "0", wantMargin: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, profit, margin := Profitability(decimal.RequireFromString(tt.revenue))
			assert.True(t, decimal.RequireFromString(tt.wantCost).Equal(cost), "cost %s", cost)
			assert.True(t, decimal.RequireFromString(tt.wantProfit).Equal(profit), "profit %s", profit)
			assert.True(t, decimal.RequireFromString(tt.wantMargin).Equal(margin), "margin %s", margin)
		})
	}
}
