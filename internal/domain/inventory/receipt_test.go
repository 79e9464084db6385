package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingReceipt(t *testing.T, claimed int64) *StockReceipt {
	t.Helper()
	r, err := NewStockReceipt(shared.NewOwnerKey(shared.OwnerShop, uuid.New()), uuid.New(), claimed, uuid.New())
	require.NoError(t, err)
	return r
}

func TestNewStockReceipt(t *testing.T) {
	r := newPendingReceipt(t, 20)
	assert.Equal(t, ReceiptPending, r.Status)
	assert.Nil(t, r.VerifiedQuantity)

	_, err := NewStockReceipt(r.Owner(), uuid.New(), 0, uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewStockReceipt(r.Owner(), uuid.Nil, 5, uuid.New())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestStockReceipt_Approve(t *testing.T) {
	t.Run("verified quantity is authoritative", func(t *testing.T) {
		r := newPendingReceipt(t, 20)
		verified := int64(18)
		require.NoError(t, r.Approve(uuid.New(), &verified, "two damaged"))

		assert.Equal(t, ReceiptApproved, r.Status)
		assert.Equal(t, int64(18), r.AcceptedQuantity())
		assert.Equal(t, "two damaged", r.DiscrepancyReason)
		assert.NotNil(t, r.VerifiedBy)
		assert.NotNil(t, r.VerifiedAt)
	})

	t.Run("defaults to claimed quantity", func(t *testing.T) {
		r := newPendingReceipt(t, 20)
		require.NoError(t, r.Approve(uuid.New(), nil, ""))
		assert.Equal(t, int64(20), r.AcceptedQuantity())
	})

	t.Run("rejects non-positive verified quantity", func(t *testing.T) {
		r := newPendingReceipt(t, 20)
		zero := int64(0)
		assert.ErrorIs(t, r.Approve(uuid.New(), &zero, ""), shared.ErrValidation)
		assert.Equal(t, ReceiptPending, r.Status)
	})

	t.Run("second decision fails", func(t *testing.T) {
		r := newPendingReceipt(t, 20)
		require.NoError(t, r.Approve(uuid.New(), nil, ""))
		assert.ErrorIs(t, r.Approve(uuid.New(), nil, ""), shared.ErrAlreadyProcessed)
		assert.ErrorIs(t, r.Reject(uuid.New(), "late"), shared.ErrAlreadyProcessed)
	})
}

func TestStockReceipt_Reject(t *testing.T) {
	r := newPendingReceipt(t, 5)
	require.NoError(t, r.Reject(uuid.New(), "wrong product"))
	assert.Equal(t, ReceiptRejected, r.Status)
	assert.Zero(t, r.AcceptedQuantity())
	assert.Nil(t, r.VerifiedQuantity)
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    Decision
		wantErr bool
	}{
		{"APPROVED", DecisionApprove, false},
		{"approve", DecisionApprove, false},
		{"REJECTED", DecisionReject, false},
		{" reject ", DecisionReject, false},
		{"PENDING", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
