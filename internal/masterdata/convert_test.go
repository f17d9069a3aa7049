package masterdata_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/masterdata"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
)

func TestConverter(t *testing.T) {
	store := memory.New()
	store.AddConversion("LUSIN", "PCS", decimal.NewFromInt(12))
	store.AddConversion("PACK", "KG", decimal.RequireFromString("0.33333333"))
	c := masterdata.NewConverter(store.MasterData())
	ctx := context.Background()

	tests := []struct {
		name     string
		qty      string
		from, to string
		want     string
	}{
		{"identity", "7", "PCS", "PCS", "7"},
		{"stored pair", "2", "LUSIN", "PCS", "24"},
		{"reverse pair divides", "36", "PCS", "LUSIN", "3"},
		{"reverse pair rounds to stored scale", "10", "PCS", "LUSIN", "0.83333333"},
		{"stored pair rounds to stored scale", "0.5", "PACK", "KG", "0.16666667"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(ctx, decimal.RequireFromString(tt.qty), tt.from, tt.to)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), got.String())
			assert.LessOrEqual(t, -got.Exponent(), int32(masterdata.QuantityScale))
		})
	}

	f, err := c.Factor(ctx, "PCS", "LUSIN")
	require.NoError(t, err)
	assert.Equal(t, "0.08333333", f.String())

	_, err = c.Convert(ctx, decimal.NewFromInt(1), "KODI", "PCS")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckPlace(t *testing.T) {
	store := memory.New()
	store.AddLocation("WH-1", "RACK-A")
	repo := store.MasterData()
	ctx := context.Background()

	assert.NoError(t, masterdata.CheckPlace(ctx, repo, "WH-1", ""))
	assert.NoError(t, masterdata.CheckPlace(ctx, repo, "WH-1", "RACK-A"))
	assert.ErrorIs(t, masterdata.CheckPlace(ctx, repo, "WH-1", "RACK-B"), apperr.ErrValidation)
	assert.ErrorIs(t, masterdata.CheckPlace(ctx, repo, "WH-2", ""), apperr.ErrValidation)
}
