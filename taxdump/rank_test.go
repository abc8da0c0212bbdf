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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStandardRank(t *testing.T) {
	for _, rank := range TaxaCountRankNames {
		assert.True(t, IsStandardRank(rank), "%s is a canonical rank", rank)
	}
	assert.False(t, IsStandardRank("unclassified"))
	assert.False(t, IsStandardRank("root"))
	assert.False(t, IsStandardRank("subspecies"))
	assert.False(t, IsStandardRank("no rank"))
	assert.False(t, IsStandardRank(""))
}

func TestStandardRankNames(t *testing.T) {
	require.Len(t, StandardRankNames, 9)
	assert.Equal(t, "unclassified", StandardRankNames[0])
	assert.Equal(t, "root", StandardRankNames[1])
	assert.Equal(t, "species", StandardRankNames[len(StandardRankNames)-1])

	require.Len(t, TaxaCountRankNames, 7)
	assert.Equal(t, "domain", TaxaCountRankNames[0])
}

func TestRankDepth(t *testing.T) {
	depth, ok := RankDepth("root")
	require.True(t, ok)
	assert.Equal(t, 0, depth, "the root is the shallowest rank")

	depth, ok = RankDepth("no rank")
	require.True(t, ok)
	assert.Equal(t, 73, depth, "no rank is the deepest rank")

	genus, ok := RankDepth("genus")
	require.True(t, ok)
	species, ok2 := RankDepth("species")
	require.True(t, ok2)
	assert.Less(t, genus, species, "genus is shallower than species")

	_, ok = RankDepth("clade")
	assert.False(t, ok, "unknown labels have no depth")

	// every canonical rank has a depth
	for _, rank := range TaxaCountRankNames {
		_, ok = RankDepth(rank)
		assert.True(t, ok, "%s must have a depth", rank)
	}
}
