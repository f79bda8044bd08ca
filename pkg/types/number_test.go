package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexDecimalAcceptsLooseInput(t *testing.T) {
	cases := map[string]string{
		`12.5`:     "12.5",
		`"12.50"`:  "12.5",
		`""`:       "0",
		`null`:     "0",
		`"abc"`:    "0",
		`"1,250"`:  "1250",
		`"7."`:     "7",
		`" 3.25 "`: "3.25",
	}
	for input, want := range cases {
		var got FlexDecimal
		require.NoError(t, json.Unmarshal([]byte(input), &got), input)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "input %s got %s", input, got.String())
	}
}

func TestFlexIntTruncates(t *testing.T) {
	var payload struct {
		Qty FlexInt `json:"qty"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"qty":"3.9"}`), &payload))
	assert.Equal(t, 3, payload.Qty.Int())

	require.NoError(t, json.Unmarshal([]byte(`{"qty":null}`), &payload))
	assert.Equal(t, 0, payload.Qty.Int())
}

func TestFlexBool(t *testing.T) {
	var payload struct {
		On FlexBool `json:"on"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"on":"true"}`), &payload))
	assert.True(t, bool(payload.On))
	require.NoError(t, json.Unmarshal([]byte(`{"on":0}`), &payload))
	assert.False(t, bool(payload.On))
}

func TestFlexDecimalMarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(struct {
		V FlexDecimal `json:"v"`
	}{V: NewFlexDecimal(decimal.RequireFromString("118.00"))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":118}`, string(out))
}
