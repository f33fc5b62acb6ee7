package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallVersusAbsolute(t *testing.T) {
	zone := USEastern()
	start := Date(2018, 3, 10, 13, 0, 0, 0, zone)

	wall := WallAdd(start, 24*time.Hour)
	assert.True(t, Date(2018, 3, 11, 13, 0, 0, 0, zone).Equal(wall), "got %s", wall)
	assert.Equal(t, 23*time.Hour, AbsoluteSub(wall, start))
	assert.Equal(t, 24*time.Hour, WallSub(wall, start))

	abs := AbsoluteAdd(start, 24*time.Hour)
	assert.True(t, Date(2018, 3, 11, 14, 0, 0, 0, zone).Equal(abs), "got %s", abs)
	assert.Equal(t, 24*time.Hour, AbsoluteSub(abs, start))
	assert.Equal(t, 25*time.Hour, WallSub(abs, start))
}

func TestAbsoluteAdd_FallBack(t *testing.T) {
	zone := USEastern()
	first := Date(2018, 11, 4, 1, 30, 0, 0, zone)

	second := AbsoluteAdd(first, time.Hour)
	assert.Equal(t, 1, second.Hour())
	assert.Equal(t, 30, second.Minute())
	assert.True(t, second.Fold())
	assert.Equal(t, -5*time.Hour, second.Offset().MustGet().UTC)

	third := AbsoluteAdd(second, time.Hour)
	assert.True(t, Date(2018, 11, 4, 2, 30, 0, 0, zone).Equal(third), "got %s", third)

	assert.Equal(t, 2*time.Hour, AbsoluteSub(third, first))
	assert.Equal(t, time.Hour, WallSub(third, first))
}

func TestWallAdd_ClearsFold(t *testing.T) {
	zone := USEastern()
	folded := Date(2018, 11, 4, 1, 30, 0, 0, zone).WithFold(true)

	got := WallAdd(folded, 0)
	assert.False(t, got.Fold())
	assert.Equal(t, time.Duration(0), WallSub(got, folded))
	assert.Equal(t, -time.Hour, AbsoluteSub(got, folded))
}

func TestArithmetic_Naive(t *testing.T) {
	naive := Date(2018, 3, 10, 13, 0, 0, 0, nil)

	assert.True(t, AbsoluteAdd(naive, 24*time.Hour).Equal(WallAdd(naive, 24*time.Hour)))
	assert.Equal(t, 24*time.Hour, AbsoluteSub(Date(2018, 3, 11, 13, 0, 0, 0, nil), naive))
}
