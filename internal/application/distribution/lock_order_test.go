package distribution

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/stretchr/testify/assert"
)

func TestLockOrder(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	mid := uuid.MustParse("80000000-0000-0000-0000-000000000000")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")

	rows := []*distribution.ShopDistribution{{ProductID: high}, {ProductID: low}, {ProductID: mid}}
	reversed := []*distribution.ShopDistribution{rows[2], rows[1], rows[0]}

	for _, in := range [][]*distribution.ShopDistribution{rows, reversed} {
		got := lockOrder(in)
		assert.Equal(t, []uuid.UUID{low, mid, high},
			[]uuid.UUID{got[0].ProductID, got[1].ProductID, got[2].ProductID})
	}
	assert.Equal(t, high, rows[0].ProductID, "input order is left alone")
}
