// Copyright © 2022-2024 The taxsum Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package taxdump

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	taxid  uint32
	parent uint32
	rank   string
}

// writeTreeFile writes nodes in the nodes.dmp column layout:
// taxid, parent taxid and rank in columns 1, 3 and 5.
func writeTreeFile(t *testing.T, nodes []testNode) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "nodes.dmp")
	fh, err := os.Create(file)
	require.NoError(t, err)
	for _, n := range nodes {
		_, err = fmt.Fprintf(fh, "%d\t|\t%d\t|\t%s\t|\n", n.taxid, n.parent, n.rank)
		require.NoError(t, err)
	}
	require.NoError(t, fh.Close())
	return file
}

// buildTestTaxonomy loads a tree spanning all seven canonical ranks,
// with a few non-standard nodes hanging off it.
func buildTestTaxonomy(t *testing.T) *Taxonomy {
	t.Helper()

	file := writeTreeFile(t, []testNode{
		{1, 1, "no rank"},
		{2, 1, "superkingdom"},
		{3, 2, "domain"},
		{4, 3, "phylum"},
		{5, 4, "class"},
		{6, 5, "order"},
		{7, 6, "family"},
		{8, 7, "genus"},
		{9, 8, "species"},
		{10, 9, "subspecies"},
		{11, 8, "species"},
		{12, 3, "no rank"},
	})
	taxdb, err := NewTaxonomyWithRanksFromNCBI(file)
	require.NoError(t, err)
	return taxdb
}

func TestNewTaxonomyWithRanks(t *testing.T) {
	taxdb := buildTestTaxonomy(t)

	assert.Equal(t, 12, taxdb.NumNodes())
	assert.Equal(t, uint32(1), taxdb.Root())
	assert.Equal(t, uint32(12), taxdb.MaxTaxid())
	// root, superkingdom, domain, phylum, class, order, family, genus,
	// species, subspecies, no rank
	assert.Equal(t, 11, taxdb.NumRanks())

	rank, ok := taxdb.Rank(1)
	require.True(t, ok)
	assert.Equal(t, "root", rank, "the stated rank of the root is overridden")

	rank, ok = taxdb.Rank(10)
	require.True(t, ok)
	assert.Equal(t, "subspecies", rank)

	rank, ok = taxdb.Rank(0)
	require.True(t, ok)
	assert.Equal(t, "unclassified", rank, "taxid 0 carries the unclassified rank")

	_, ok = taxdb.Rank(999)
	assert.False(t, ok)
}

func TestNewTaxonomyWithRanksUpperCaseRanks(t *testing.T) {
	file := writeTreeFile(t, []testNode{
		{1, 1, "no rank"},
		{2, 1, "Genus"},
	})
	taxdb, err := NewTaxonomyWithRanksFromNCBI(file)
	require.NoError(t, err)

	rank, ok := taxdb.Rank(2)
	require.True(t, ok)
	assert.Equal(t, "genus", rank, "rank labels are lower cased on load")
}

func TestNewTaxonomyWithRanksIllegalColumn(t *testing.T) {
	file := writeTreeFile(t, []testNode{{1, 1, "no rank"}})

	_, err := NewTaxonomyWithRanks(file, 0, 3, 5)
	assert.ErrorIs(t, err, ErrIllegalColumnIndex)

	_, err = NewTaxonomyWithRanks(file, 1, -1, 5)
	assert.ErrorIs(t, err, ErrIllegalColumnIndex)
}

func TestNewTaxonomyWithRanksBadRoot(t *testing.T) {
	// no taxid 1 at all
	file := writeTreeFile(t, []testNode{
		{2, 2, "no rank"},
		{3, 2, "genus"},
	})
	_, err := NewTaxonomyWithRanksFromNCBI(file)
	assert.ErrorIs(t, err, ErrBadRoot)

	// taxid 1 not its own parent
	file = writeTreeFile(t, []testNode{
		{1, 2, "no rank"},
		{2, 2, "no rank"},
	})
	_, err = NewTaxonomyWithRanksFromNCBI(file)
	assert.ErrorIs(t, err, ErrBadRoot)
}

func TestNewTaxonomyWithRanksBrokenBranch(t *testing.T) {
	// node 20 needs its ancestors for rank resolution but its parent
	// is not in the file, so construction must fail.
	file := writeTreeFile(t, []testNode{
		{1, 1, "no rank"},
		{20, 99, "subfamily"},
	})
	_, err := NewTaxonomyWithRanksFromNCBI(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taxid 20")

	// node 21 carries a canonical rank, so its broken parent link is
	// only noticed when the chain is walked.
	file = writeTreeFile(t, []testNode{
		{1, 1, "no rank"},
		{21, 99, "genus"},
	})
	taxdb, err := NewTaxonomyWithRanksFromNCBI(file)
	require.NoError(t, err)

	_, err = taxdb.Ancestors(21)
	assert.ErrorIs(t, err, ErrBrokenChain)
}

func TestStandardRankResolution(t *testing.T) {
	taxdb := buildTestTaxonomy(t)

	tests := []struct {
		taxid uint32
		rank  string
	}{
		{0, "unclassified"},
		{1, "root"},
		{2, "root"},     // superkingdom is not canonical, inherits from the root
		{3, "domain"},   // canonical rank kept
		{10, "species"}, // subspecies inherits from 9
		{12, "domain"},  // no rank inherits from 3
	}
	for _, test := range tests {
		rank, ok := taxdb.StandardRank(test.taxid)
		require.True(t, ok, "taxid %d must have a standard rank", test.taxid)
		assert.Equal(t, test.rank, rank, "standard rank of taxid %d", test.taxid)
	}
}

// TestStandardRankTotality verifies every node gets exactly one
// standard rank from the closed label set.
func TestStandardRankTotality(t *testing.T) {
	taxdb := buildTestTaxonomy(t)

	labels := make(map[string]struct{}, len(StandardRankNames))
	for _, rank := range StandardRankNames {
		labels[rank] = struct{}{}
	}

	for taxid := range taxdb.Nodes {
		rank, ok := taxdb.StandardRank(taxid)
		require.True(t, ok, "taxid %d has no standard rank", taxid)
		_, known := labels[rank]
		assert.True(t, known, "standard rank %q of taxid %d not in the label set", rank, taxid)
	}
}

func TestAncestors(t *testing.T) {
	taxdb := buildTestTaxonomy(t)

	chain, err := taxdb.Ancestors(9)
	require.NoError(t, err)
	assert.Equal(t, []uint32{9, 8, 7, 6, 5, 4, 3, 2, 1}, chain)

	chain, err = taxdb.Ancestors(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, chain, "the chain of the root is just the root")

	// every non-root chain starts with the taxid and ends at the root
	for taxid := range taxdb.Nodes {
		if taxid == taxdb.Root() {
			continue
		}
		chain, err = taxdb.Ancestors(taxid)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(chain), 2)
		assert.Equal(t, taxid, chain[0])
		assert.Equal(t, uint32(1), chain[len(chain)-1])
	}
}

func TestAncestorsInvalidTaxids(t *testing.T) {
	taxdb := buildTestTaxonomy(t)

	_, err := taxdb.Ancestors(0)
	assert.ErrorIs(t, err, ErrUnclassifiedTaxid)

	_, err = taxdb.Ancestors(999)
	assert.ErrorIs(t, err, ErrTaxidNotFound)
}

func TestAncestorsCache(t *testing.T) {
	taxdb := buildTestTaxonomy(t)
	taxdb.CacheAncestors()

	chain1, err := taxdb.Ancestors(10)
	require.NoError(t, err)
	chain2, err := taxdb.Ancestors(10)
	require.NoError(t, err)
	assert.Equal(t, chain1, chain2, "cached chains must not differ")

	chain, err := taxdb.Ancestors(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, chain)
}

func TestLCA(t *testing.T) {
	taxdb := buildTestTaxonomy(t)

	tests := []struct {
		taxids []uint32
		lca    uint32
	}{
		{[]uint32{9, 11}, 8},     // siblings meet at the genus
		{[]uint32{11, 9}, 8},     // order must not matter
		{[]uint32{9, 9, 11}, 8},  // duplicates must not matter
		{[]uint32{3, 9}, 3},      // an ancestor is the LCA of itself and a descendant
		{[]uint32{9, 3}, 3},
		{[]uint32{10, 12}, 3},    // across branches of different depth
		{[]uint32{10, 11, 9}, 8}, // more than two members
		{[]uint32{1, 9}, 1},
		{[]uint32{9}, 9},         // a single taxid is its own LCA
		{[]uint32{0}, 0},
	}
	for _, test := range tests {
		lca, err := taxdb.LCA(test.taxids)
		require.NoError(t, err)
		assert.Equal(t, test.lca, lca, "LCA of %v", test.taxids)
	}
}

func TestLCAInvalidInput(t *testing.T) {
	taxdb := buildTestTaxonomy(t)

	_, err := taxdb.LCA([]uint32{})
	assert.ErrorIs(t, err, ErrNoTaxids)

	_, err = taxdb.LCA([]uint32{0, 9})
	assert.ErrorIs(t, err, ErrUnclassifiedTaxid, "taxid 0 is not valid among multiple candidates")

	_, err = taxdb.LCA([]uint32{9, 999})
	assert.ErrorIs(t, err, ErrTaxidNotFound)
}

// TestLCASiblingSpecies covers the two-species case: candidates 3 and 4
// below genus node 2 resolve to the genus.
func TestLCASiblingSpecies(t *testing.T) {
	file := writeTreeFile(t, []testNode{
		{1, 1, "root"},
		{2, 1, "genus"},
		{3, 2, "species"},
		{4, 2, "species"},
	})
	taxdb, err := NewTaxonomyWithRanksFromNCBI(file)
	require.NoError(t, err)

	lca, err := taxdb.LCA([]uint32{3, 4})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), lca)

	rank, ok := taxdb.StandardRank(lca)
	require.True(t, ok)
	assert.Equal(t, "genus", rank)
}

func TestShortAndBlankLinesSkipped(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nodes.dmp")
	content := "1\t|\t1\t|\tno rank\t|\n" +
		"\n" +
		"malformed line\n" +
		"2\t|\t1\t|\tgenus\t|\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	taxdb, err := NewTaxonomyWithRanksFromNCBI(file)
	require.NoError(t, err)
	assert.Equal(t, 2, taxdb.NumNodes())
}
