package reconcile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile_ToggleOff(t *testing.T) {
	t.Run("real data surfaced unconditionally", func(t *testing.T) {
		result := Reconcile([]string{"a", "b"}, []string{"x"}, false)

		assert.Equal(t, []string{"a", "b"}, result.Data)
		assert.False(t, result.Metadata.IsSynthetic)
		assert.Equal(t, SourceReal, result.Metadata.Source)
	})

	t.Run("empty real data stays real, never falls back", func(t *testing.T) {
		result := Reconcile(nil, []string{"x", "y"}, false)

		assert.Empty(t, result.Data)
		assert.NotNil(t, result.Data)
		assert.False(t, result.Metadata.IsSynthetic)
		assert.Equal(t, SourceReal, result.Metadata.Source)
	})
}

func TestReconcile_ToggleOn(t *testing.T) {
	t.Run("synthetic data wins", func(t *testing.T) {
		result := Reconcile([]string{"a"}, []string{"x", "y"}, true)

		assert.Equal(t, []string{"x", "y"}, result.Data)
		assert.True(t, result.Metadata.IsSynthetic)
		assert.Equal(t, SourceSynthetic, result.Metadata.Source)
	})

	t.Run("empty synthetic falls back to real", func(t *testing.T) {
		result := Reconcile([]string{"a"}, nil, true)

		assert.Equal(t, []string{"a"}, result.Data)
		assert.False(t, result.Metadata.IsSynthetic)
		assert.Equal(t, SourceReal, result.Metadata.Source)
	})

	t.Run("both empty is labeled empty, not synthetic", func(t *testing.T) {
		result := Reconcile[string](nil, nil, true)

		assert.Empty(t, result.Data)
		assert.True(t, result.Metadata.IsSynthetic)
		assert.Equal(t, SourceEmpty, result.Metadata.Source)
	})
}

func TestReconcile_Deterministic(t *testing.T) {
	real := []string{"a"}
	synthetic := []string{"x"}

	first := Reconcile(real, synthetic, true)
	second := Reconcile(real, synthetic, true)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Metadata.Source, second.Metadata.Source)
}

func TestReconcileFetch(t *testing.T) {
	fetchErr := errors.New("dynamodb unavailable")

	t.Run("error propagates with toggle off", func(t *testing.T) {
		_, err := ReconcileFetch(nil, fetchErr, []string{"x"}, false)

		assert.Equal(t, fetchErr, err)
	})

	t.Run("error swallowed with toggle on", func(t *testing.T) {
		result, err := ReconcileFetch(nil, fetchErr, []string{"x"}, true)

		assert.NoError(t, err)
		assert.Equal(t, []string{"x"}, result.Data)
		assert.Equal(t, SourceSynthetic, result.Metadata.Source)
	})

	t.Run("successful fetch reconciles normally", func(t *testing.T) {
		result, err := ReconcileFetch([]string{"a"}, nil, []string{"x"}, false)

		assert.NoError(t, err)
		assert.Equal(t, []string{"a"}, result.Data)
	})
}

func TestFilter(t *testing.T) {
	keep := func(s string) bool { return strings.HasPrefix(s, "k") }

	t.Run("applies uniformly to either source", func(t *testing.T) {
		real := Reconcile([]string{"keep", "drop"}, nil, false)
		synthetic := Reconcile(nil, []string{"kept", "dropped"}, true)

		assert.Equal(t, []string{"keep"}, Filter(real, keep).Data)
		assert.Equal(t, []string{"kept"}, Filter(synthetic, keep).Data)
	})

	t.Run("preserves provenance", func(t *testing.T) {
		result := Filter(Reconcile(nil, []string{"kept"}, true), keep)

		assert.True(t, result.Metadata.IsSynthetic)
		assert.Equal(t, SourceSynthetic, result.Metadata.Source)
	})

	t.Run("nil filter is identity", func(t *testing.T) {
		result := Reconcile([]string{"a"}, nil, false)

		assert.Equal(t, result, Filter(result, nil))
	})
}
