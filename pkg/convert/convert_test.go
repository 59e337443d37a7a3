package convert_test

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/convert"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText_Bool(t *testing.T) {
	for _, in := range []string{"1", "true", "TRUE"} {
		v, err := convert.FromText[bool](in)
		require.NoError(t, err, in)
		assert.True(t, v, in)
	}
	for _, in := range []string{"0", "false", "FALSE"} {
		v, err := convert.FromText[bool](in)
		require.NoError(t, err, in)
		assert.False(t, v, in)
	}
	for _, in := range []string{"yes", "True", "", " true"} {
		_, err := convert.FromText[bool](in)
		assert.ErrorIs(t, err, domain.ErrNoMatch, in)
	}
}

func TestFromText_Numbers(t *testing.T) {
	i, err := convert.FromText[int16]("-1200")
	require.NoError(t, err)
	assert.Equal(t, int16(-1200), i)

	_, err = convert.FromText[int8]("300")
	assert.ErrorIs(t, err, strconv.ErrRange)

	_, err = convert.FromText[uint]("-1")
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	var ce *domain.ConversionError
	_, err = convert.FromText[int]("abc")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "abc", ce.Text)
	assert.Equal(t, "int", ce.Target)
}

func TestRoundTrip(t *testing.T) {
	t.Run("ints", func(t *testing.T) {
		for _, v := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
			got, err := convert.FromText[int64](convert.ToText(v))
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
		got, err := convert.FromText[uint64](convert.ToText(uint64(math.MaxUint64)))
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), got)
	})

	t.Run("floats", func(t *testing.T) {
		for _, v := range []float64{0, 0.1, -3.25, math.MaxFloat64, math.SmallestNonzeroFloat64} {
			got, err := convert.FromText[float64](convert.ToText(v))
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
		f32, err := convert.FromText[float32](convert.ToText(float32(0.1)))
		require.NoError(t, err)
		assert.Equal(t, float32(0.1), f32)
	})

	t.Run("status", func(t *testing.T) {
		got, err := convert.FromText[domain.Status](convert.ToText(domain.StatusSkipped))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSkipped, got)
	})

	t.Run("duration", func(t *testing.T) {
		got, err := convert.FromText[time.Duration](convert.ToText(1500 * time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, 1500*time.Millisecond, got)
	})
}

func TestFromText_Sequences(t *testing.T) {
	ints, err := convert.FromText[[]int]("1;2;3;4")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, ints)
	assert.Equal(t, "1;2;3;4", convert.ToText(ints))

	strs, err := convert.FromText[[]string]("a;b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, strs)

	empty, err := convert.FromText[[]float64]("")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = convert.FromText[[]int]("1;x;3")
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	statuses, err := convert.FromText[[]domain.Status]("SUCCESS;FAILURE")
	require.NoError(t, err)
	assert.Equal(t, []domain.Status{domain.StatusSuccess, domain.StatusFailure}, statuses)
}

type point struct{ X, Y int }

func TestRegister_CustomType(t *testing.T) {
	convert.Register(func(s string) (point, error) {
		xs, ys, ok := strings.Cut(s, ",")
		if !ok {
			return point{}, errors.New("want x,y")
		}
		x, err := strconv.Atoi(xs)
		if err != nil {
			return point{}, err
		}
		y, err := strconv.Atoi(ys)
		return point{x, y}, err
	})

	p, err := convert.FromText[point]("3,4")
	require.NoError(t, err)
	assert.Equal(t, point{3, 4}, p)

	ps, err := convert.FromText[[]point]("1,2;5,6")
	require.NoError(t, err)
	assert.Equal(t, []point{{1, 2}, {5, 6}}, ps)

	_, err = convert.FromText[point]("nope")
	assert.Error(t, err)
}

func TestFromText_Any(t *testing.T) {
	v, err := convert.FromText[any]("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", v)
}

func TestConvert(t *testing.T) {
	n, err := convert.Convert[int](42)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = convert.Convert[int]("17")
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	_, err = convert.Convert[int](int64(42))
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}
