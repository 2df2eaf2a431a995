package deposit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/equipment-rental/internal/model"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to model.DepositStatus
		ok       bool
	}{
		{model.DepositNone, model.DepositPending, true},
		{"", model.DepositPending, true},
		{model.DepositPending, model.DepositCardSaved, true},
		{model.DepositCardSaved, model.DepositAuthorized, true},
		{model.DepositAuthorized, model.DepositCaptured, true},
		{model.DepositAuthorized, model.DepositReleased, true},
		{model.DepositAuthorized, model.DepositFailed, true},
		{model.DepositFailed, model.DepositPending, true},
		{model.DepositNone, model.DepositAuthorized, false},
		{model.DepositPending, model.DepositCaptured, false},
		{model.DepositCaptured, model.DepositReleased, false},
		{model.DepositReleased, model.DepositCaptured, false},
		{model.DepositCaptured, model.DepositPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, err := Transition(tt.from, tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, got)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.DepositCaptured))
	assert.True(t, IsTerminal(model.DepositReleased))
	assert.False(t, IsTerminal(model.DepositAuthorized))
	assert.False(t, IsTerminal(model.DepositFailed))
}

func TestPlanCapture(t *testing.T) {
	held := decimal.RequireFromString("200")

	plan, err := PlanCapture(held, decimal.RequireFromString("75.50"), "scratched frame")
	require.NoError(t, err)
	assert.Equal(t, "75.50", plan.Captured.StringFixed(2))
	assert.Equal(t, "124.50", plan.Returned.StringFixed(2))

	full, err := PlanCapture(held, held, "lost")
	require.NoError(t, err)
	assert.True(t, full.Returned.IsZero())

	_, err = PlanCapture(held, decimal.RequireFromString("10"), "  ")
	assert.ErrorIs(t, err, ErrInvalidCapture)
	_, err = PlanCapture(held, decimal.Zero, "damage")
	assert.ErrorIs(t, err, ErrInvalidCapture)
	_, err = PlanCapture(held, decimal.RequireFromString("200.01"), "damage")
	assert.ErrorIs(t, err, ErrInvalidCapture)
}
