// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package table

import (
	"golang.org/x/exp/rand"

	"github.com/molecula/tabingest/errors"
)

const (
	// DefaultTestPercent is the share of rows held out for evaluation.
	DefaultTestPercent = 20
	// DefaultSeed makes the train/test split reproducible across runs.
	DefaultSeed uint64 = 42
)

// Split partitions the rows of t into a train and a test table. The test
// table gets ceil(testPercent*N/100) rows and the train table the rest; every
// row of t lands in exactly one of them. Rows are assigned by a permutation
// drawn from seed, so the same input and seed always give the same split.
func Split(t *Table, testPercent int, seed uint64) (train, test *Table, err error) {
	if testPercent < 0 || testPercent > 100 {
		return nil, nil, errors.Newf(errors.ErrUncoded, "test percent %d out of range [0, 100]", testPercent)
	}
	n := t.NumRows()
	nTest := (n*testPercent + 99) / 100

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return t.Take(perm[nTest:]), t.Take(perm[:nTest]), nil
}
