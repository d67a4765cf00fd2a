package valueobjects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTimeSpan(t *testing.T) {
	start := time.Date(2023, time.March, 15, 10, 0, 0, 0, time.UTC)

	t.Run("valid span", func(t *testing.T) {
		span, err := NewTimeSpan(start, start.Add(2*time.Hour))

		assert.NoError(t, err)
		assert.Equal(t, start, span.Start())
		assert.Equal(t, 2*time.Hour, span.Duration())
	})

	t.Run("zero start rejected", func(t *testing.T) {
		_, err := NewTimeSpan(time.Time{}, start)

		assert.Error(t, err)
	})

	t.Run("end before start rejected", func(t *testing.T) {
		_, err := NewTimeSpan(start, start.Add(-time.Hour))

		assert.Error(t, err)
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		zone := time.FixedZone("UTC+2", 2*3600)
		local := time.Date(2023, time.March, 15, 12, 0, 0, 0, zone)

		span, err := NewTimeSpan(local, local)

		assert.NoError(t, err)
		assert.Equal(t, time.UTC, span.Start().Location())
		assert.Equal(t, 10, span.Start().Hour())
	})
}

func TestTimeSpan_NewInstant(t *testing.T) {
	at := time.Date(2023, time.March, 15, 10, 0, 0, 0, time.UTC)

	span, err := NewInstant(at)

	assert.NoError(t, err)
	assert.True(t, span.IsInstant())
	assert.Equal(t, time.Duration(0), span.Duration())
}

func TestTimeSpan_Contains(t *testing.T) {
	start := time.Date(2023, time.March, 15, 10, 0, 0, 0, time.UTC)
	span, _ := NewTimeSpan(start, start.Add(2*time.Hour))

	assert.True(t, span.Contains(start))
	assert.True(t, span.Contains(start.Add(time.Hour)))
	assert.True(t, span.Contains(start.Add(2*time.Hour)))
	assert.False(t, span.Contains(start.Add(-time.Second)))
	assert.False(t, span.Contains(start.Add(2*time.Hour+time.Second)))
}

func TestTimeSpan_Intersect(t *testing.T) {
	base := time.Date(2023, time.March, 15, 10, 0, 0, 0, time.UTC)

	t.Run("overlapping spans", func(t *testing.T) {
		a, _ := NewTimeSpan(base, base.Add(4*time.Hour))
		b, _ := NewTimeSpan(base.Add(2*time.Hour), base.Add(6*time.Hour))

		intersection, ok := a.Intersect(b)

		assert.True(t, ok)
		assert.Equal(t, base.Add(2*time.Hour), intersection.Start())
		assert.Equal(t, base.Add(4*time.Hour), intersection.End())
	})

	t.Run("disjoint spans", func(t *testing.T) {
		a, _ := NewTimeSpan(base, base.Add(time.Hour))
		b, _ := NewTimeSpan(base.Add(2*time.Hour), base.Add(3*time.Hour))

		_, ok := a.Intersect(b)

		assert.False(t, ok)
	})

	t.Run("touching spans excluded", func(t *testing.T) {
		a, _ := NewTimeSpan(base, base.Add(time.Hour))
		b, _ := NewTimeSpan(base.Add(time.Hour), base.Add(2*time.Hour))

		_, ok := a.Intersect(b)

		assert.False(t, ok)
	})

	t.Run("contained span", func(t *testing.T) {
		outer, _ := NewTimeSpan(base, base.Add(10*time.Hour))
		inner, _ := NewTimeSpan(base.Add(2*time.Hour), base.Add(3*time.Hour))

		intersection, ok := outer.Intersect(inner)

		assert.True(t, ok)
		assert.Equal(t, inner.Start(), intersection.Start())
		assert.Equal(t, inner.End(), intersection.End())
	})
}

func TestTimeSpan_Widen(t *testing.T) {
	at := time.Date(2023, time.March, 15, 14, 30, 0, 0, time.UTC)
	span, _ := NewInstant(at)

	t.Run("exact precision unchanged", func(t *testing.T) {
		widened := span.Widen(PrecisionExact, 0)

		assert.Equal(t, span, widened)
	})

	t.Run("day precision snaps to day bounds", func(t *testing.T) {
		widened := span.Widen(PrecisionDay, 0)

		assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), widened.Start())
		assert.Equal(t, time.Date(2023, time.March, 15, 23, 59, 59, 0, time.UTC), widened.End())
	})

	t.Run("month precision snaps to month bounds", func(t *testing.T) {
		widened := span.Widen(PrecisionMonth, 0)

		assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), widened.Start())
		assert.Equal(t, time.Date(2023, time.March, 31, 23, 59, 59, 0, time.UTC), widened.End())
	})

	t.Run("year precision snaps to year bounds", func(t *testing.T) {
		widened := span.Widen(PrecisionYear, 0)

		assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), widened.Start())
		assert.Equal(t, time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC), widened.End())
	})

	t.Run("approximate precision applies fuzz", func(t *testing.T) {
		fuzz := 7 * 24 * time.Hour

		widened := span.Widen(PrecisionApproximate, fuzz)

		assert.Equal(t, at.Add(-fuzz), widened.Start())
		assert.Equal(t, at.Add(fuzz), widened.End())
	})

	t.Run("multi-day span keeps both calendar edges", func(t *testing.T) {
		multi, _ := NewTimeSpan(at, at.AddDate(0, 0, 3))

		widened := multi.Widen(PrecisionDay, 0)

		assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), widened.Start())
		assert.Equal(t, time.Date(2023, time.March, 18, 23, 59, 59, 0, time.UTC), widened.End())
	})
}

func TestParseTimePrecision(t *testing.T) {
	t.Run("known values", func(t *testing.T) {
		for _, raw := range []string{"exact", "day", "month", "year", "approximate"} {
			precision, err := ParseTimePrecision(raw)

			assert.NoError(t, err)
			assert.Equal(t, TimePrecision(raw), precision)
		}
	})

	t.Run("empty defaults to exact", func(t *testing.T) {
		precision, err := ParseTimePrecision("")

		assert.NoError(t, err)
		assert.Equal(t, PrecisionExact, precision)
	})

	t.Run("unknown rejected", func(t *testing.T) {
		_, err := ParseTimePrecision("fortnight")

		assert.Error(t, err)
	})
}

func TestConfidence(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		confidence, err := NewConfidence(0.75)

		assert.NoError(t, err)
		assert.Equal(t, 0.75, confidence.Value())
		assert.False(t, confidence.IsCertain())
	})

	t.Run("out of range rejected", func(t *testing.T) {
		_, err := NewConfidence(1.5)
		assert.Error(t, err)

		_, err = NewConfidence(-0.1)
		assert.Error(t, err)
	})

	t.Run("full confidence is certain", func(t *testing.T) {
		assert.True(t, FullConfidence().IsCertain())
	})
}
