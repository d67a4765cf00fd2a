package reconcile

import (
	"time"
)

// Source labels where reconciled data came from
type Source string

const (
	SourceReal      Source = "real"
	SourceSynthetic Source = "synthetic"
	// SourceEmpty marks the case where synthetic mode is on but neither
	// source had anything to show. Labeling it "synthetic" would claim
	// synthetic data was used when none was.
	SourceEmpty Source = "empty"
)

// Metadata is the provenance attached to every reconciliation decision
type Metadata struct {
	IsSynthetic bool      `json:"is_synthetic"`
	Source      Source    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result carries the chosen dataset plus its provenance
type Result[T any] struct {
	Data     []T      `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// Reconcile decides what the caller should display given a live fetch
// result and a synthetic fallback dataset. It is pure in its three inputs:
// callers must re-invoke it on every toggle change, never memoize across
// one.
//
// With useSynthetic on, synthetic data wins; an empty synthetic set falls
// back to real data. With useSynthetic off, real data is surfaced
// unconditionally, even when empty.
func Reconcile[T any](real []T, synthetic []T, useSynthetic bool) Result[T] {
	now := time.Now()

	if !useSynthetic {
		if real == nil {
			real = []T{}
		}
		return Result[T]{
			Data:     real,
			Metadata: Metadata{IsSynthetic: false, Source: SourceReal, Timestamp: now},
		}
	}

	if len(synthetic) > 0 {
		return Result[T]{
			Data:     synthetic,
			Metadata: Metadata{IsSynthetic: true, Source: SourceSynthetic, Timestamp: now},
		}
	}

	if len(real) > 0 {
		return Result[T]{
			Data:     real,
			Metadata: Metadata{IsSynthetic: false, Source: SourceReal, Timestamp: now},
		}
	}

	return Result[T]{
		Data:     []T{},
		Metadata: Metadata{IsSynthetic: true, Source: SourceEmpty, Timestamp: now},
	}
}

// ReconcileFetch folds a failed live fetch into the decision. With
// useSynthetic on, the error is swallowed and the synthetic dataset is
// surfaced as a successful synthetic-sourced result; with it off, the
// error propagates untouched.
func ReconcileFetch[T any](real []T, fetchErr error, synthetic []T, useSynthetic bool) (Result[T], error) {
	if fetchErr != nil {
		if !useSynthetic {
			return Result[T]{}, fetchErr
		}
		return Reconcile(nil, synthetic, true), nil
	}
	return Reconcile(real, synthetic, useSynthetic), nil
}

// Filter applies a post-filter to reconciled data. Filtering always runs
// after reconciliation and uniformly over either source, so filters behave
// identically on real and synthetic data.
func Filter[T any](result Result[T], keep func(T) bool) Result[T] {
	if keep == nil {
		return result
	}
	filtered := make([]T, 0, len(result.Data))
	for _, item := range result.Data {
		if keep(item) {
			filtered = append(filtered, item)
		}
	}
	result.Data = filtered
	return result
}
