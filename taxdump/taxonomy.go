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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shenwei356/breader"
)

// RootTaxid is the taxid of the tree root, which is its own parent.
const RootTaxid uint32 = 1

// UnclassifiedTaxid is the reserved taxid of unclassified reads.
// It is not a tree node and has no parent.
const UnclassifiedTaxid uint32 = 0

// Taxonomy holds the parent and rank relationships of taxa in a
// taxonomy tree. All maps are populated once at construction and are
// read-only afterwards.
type Taxonomy struct {
	file     string
	rootNode uint32

	Nodes         map[uint32]uint32 // taxid -> parent taxid
	Ranks         map[uint32]string // taxid -> rank as stated in the file, lower case
	StandardRanks map[uint32]string // taxid -> standard rank

	cacheAncestors bool
	ancestorsCache map[uint32][]uint32

	maxTaxid uint32
}

// ErrIllegalColumnIndex means column index is 0 or negative.
var ErrIllegalColumnIndex = errors.New("taxdump: illegal column index, positive integer needed")

// ErrBadRoot means the root node, taxid 1, is missing or is not its own parent.
var ErrBadRoot = errors.New("taxdump: root node (taxid 1) missing or not its own parent")

// ErrUnclassifiedTaxid means taxid 0 was passed to an operation that
// needs a tree node.
var ErrUnclassifiedTaxid = errors.New("taxdump: taxid 0 is not a tree node")

// ErrTaxidNotFound means a taxid has no node in the taxonomy.
var ErrTaxidNotFound = errors.New("taxdump: taxid not found in taxonomy")

// ErrBrokenChain means an ancestor chain did not reach the root,
// the parent link being missing or cyclic.
var ErrBrokenChain = errors.New("taxdump: broken ancestor chain, parent link missing or cyclic")

// ErrNoTaxids means an empty taxid set was given.
var ErrNoTaxids = errors.New("taxdump: empty taxid set")

// ErrNoCommonAncestor means no common ancestor was found for a taxid
// set, which can not happen in a single-rooted tree.
var ErrNoCommonAncestor = errors.New("taxdump: no common ancestor found")

// NewTaxonomyWithRanksFromNCBI parses a taxonomy with ranks from
// nodes.dmp of ftp://ftp.ncbi.nih.gov/pub/taxonomy/taxdump.tar.gz,
// or any file of the same column layout.
func NewTaxonomyWithRanksFromNCBI(file string) (*Taxonomy, error) {
	return NewTaxonomyWithRanks(file, 1, 3, 5)
}

// NewTaxonomyWithRanks loads taxid, parent taxid and rank from given
// columns (1-based) of a tab-delimited file. Rank labels are lower
// cased. The root node must be taxid 1 and its own parent, its rank is
// forced to "root" whatever the file says. Every node is assigned a
// standard rank: its own rank when that is one of the seven canonical
// ranks, the standard rank of its nearest ranked ancestor otherwise.
// Taxid 0 carries the rank "unclassified" in both rank maps without
// being a tree node.
func NewTaxonomyWithRanks(file string, childColumn int, parentColumn int, rankColumn int) (*Taxonomy, error) {
	if childColumn < 1 || parentColumn < 1 || rankColumn < 1 {
		return nil, ErrIllegalColumnIndex
	}
	minColumns := childColumn
	if parentColumn > minColumns {
		minColumns = parentColumn
	}
	if rankColumn > minColumns {
		minColumns = rankColumn
	}

	// taxon represents a taxonomic node
	type taxon struct {
		Taxid  uint32
		Parent uint32
		Rank   string
	}

	parseFunc := func(line string) (interface{}, bool, error) {
		items := strings.Split(line, "\t")
		if len(items) < minColumns {
			return nil, false, nil
		}
		child, e := strconv.Atoi(items[childColumn-1])
		if e != nil {
			return nil, false, e
		}
		parent, e := strconv.Atoi(items[parentColumn-1])
		if e != nil {
			return nil, false, e
		}
		return taxon{
			Taxid:  uint32(child),
			Parent: uint32(parent),
			Rank:   strings.ToLower(items[rankColumn-1]),
		}, true, nil
	}

	reader, err := breader.NewBufferedReader(file, 8, 100, parseFunc)
	if err != nil {
		return nil, fmt.Errorf("taxdump: %s", err)
	}

	nodes := make(map[uint32]uint32, 1024)
	taxa := make([]taxon, 0, 1024)

	var tax taxon
	var data interface{}
	var maxTaxid uint32
	for chunk := range reader.Ch {
		if chunk.Err != nil {
			return nil, fmt.Errorf("taxdump: %s", chunk.Err)
		}
		for _, data = range chunk.Data {
			tax = data.(taxon)

			nodes[tax.Taxid] = tax.Parent

			taxa = append(taxa, tax)

			if tax.Taxid > maxTaxid {
				maxTaxid = tax.Taxid
			}
		}
	}

	if parent, ok := nodes[RootTaxid]; !ok || parent != RootTaxid {
		return nil, ErrBadRoot
	}

	t := &Taxonomy{
		file:     file,
		Nodes:    nodes,
		rootNode: RootTaxid,
		maxTaxid: maxTaxid,
	}

	ranks := make(map[uint32]string, len(nodes)+1)
	standardRanks := make(map[uint32]string, len(nodes)+1)
	ranks[UnclassifiedTaxid] = "unclassified"
	standardRanks[UnclassifiedTaxid] = "unclassified"

	// pass one: keep canonical ranks, force the root to "root".
	for _, tax = range taxa {
		if tax.Taxid == t.rootNode {
			ranks[tax.Taxid] = "root"
			standardRanks[tax.Taxid] = "root"
			continue
		}
		ranks[tax.Taxid] = tax.Rank
		if IsStandardRank(tax.Rank) {
			standardRanks[tax.Taxid] = tax.Rank
		}
	}

	t.Ranks = ranks
	t.StandardRanks = standardRanks

	// pass two: the remaining nodes inherit the standard rank of the
	// nearest ranked ancestor. The root always carries one.
	var chain []uint32
	var taxid uint32
	var rank string
	var ok bool
	for _, tax = range taxa {
		if _, ok = standardRanks[tax.Taxid]; ok {
			continue
		}
		chain, err = t.Ancestors(tax.Taxid)
		if err != nil {
			return nil, fmt.Errorf("taxdump: resolving standard rank of taxid %d: %s", tax.Taxid, err)
		}
		ok = false
		for _, taxid = range chain {
			if rank, ok = standardRanks[taxid]; ok {
				standardRanks[tax.Taxid] = rank
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("taxdump: no ranked ancestor for taxid %d", tax.Taxid)
		}
	}

	return t, nil
}

// MaxTaxid returns the maximum taxid.
func (t *Taxonomy) MaxTaxid() uint32 {
	return t.maxTaxid
}

// Root returns the root taxid.
func (t *Taxonomy) Root() uint32 {
	return t.rootNode
}

// NumNodes returns the number of tree nodes.
func (t *Taxonomy) NumNodes() int {
	return len(t.Nodes)
}

// NumRanks returns the number of distinct rank labels of tree nodes.
func (t *Taxonomy) NumRanks() int {
	labels := make(map[string]struct{}, 64)
	for taxid := range t.Nodes {
		labels[t.Ranks[taxid]] = struct{}{}
	}
	return len(labels)
}

// Rank returns the rank of a taxid as stated in the source file.
func (t *Taxonomy) Rank(taxid uint32) (string, bool) {
	rank, ok := t.Ranks[taxid]
	return rank, ok
}

// StandardRank returns the standard rank of a taxid.
func (t *Taxonomy) StandardRank(taxid uint32) (string, bool) {
	rank, ok := t.StandardRanks[taxid]
	return rank, ok
}

// CacheAncestors tells to cache every ancestor chain, keyed by taxid.
// Cached chains are shared between calls and must not be modified.
func (t *Taxonomy) CacheAncestors() {
	t.cacheAncestors = true
	if t.ancestorsCache == nil {
		t.ancestorsCache = make(map[uint32][]uint32, 1024)
	}
}

// Ancestors returns the ancestor chain of a taxid, beginning with the
// taxid itself and ending with the root. The chain of the root is just
// the root. Taxid 0 has no chain.
func (t *Taxonomy) Ancestors(taxid uint32) ([]uint32, error) {
	if taxid == UnclassifiedTaxid {
		return nil, ErrUnclassifiedTaxid
	}

	var chain []uint32
	var ok bool

	if t.cacheAncestors {
		if chain, ok = t.ancestorsCache[taxid]; ok {
			return chain, nil
		}
	}

	if _, ok = t.Nodes[taxid]; !ok {
		return nil, ErrTaxidNotFound
	}

	chain = make([]uint32, 0, 16)
	chain = append(chain, taxid)

	var parent uint32
	child := taxid
	// a well-formed tree reaches the root within len(Nodes) steps
	for steps := len(t.Nodes); child != t.rootNode; steps-- {
		if steps <= 0 {
			return nil, ErrBrokenChain
		}
		if parent, ok = t.Nodes[child]; !ok {
			return nil, ErrBrokenChain
		}
		if parent == child {
			return nil, ErrBrokenChain
		}
		chain = append(chain, parent)
		child = parent
	}

	if t.cacheAncestors {
		t.ancestorsCache[taxid] = chain
	}
	return chain, nil
}

// LCA returns the lowest common ancestor of a set of taxids.
//
// The ancestor sets of all taxids are intersected, then the first
// element of one member's own chain lying in the intersection, being
// the deepest, is the LCA. A single taxid is its own LCA. Taxid 0 is
// not a valid member of sets of two or more.
func (t *Taxonomy) LCA(taxids []uint32) (uint32, error) {
	if len(taxids) == 0 {
		return 0, ErrNoTaxids
	}
	if len(taxids) == 1 {
		return taxids[0], nil
	}

	var common map[uint32]struct{}
	var m map[uint32]struct{}
	var chain []uint32
	var err error
	var taxid uint32
	var ok bool
	for _, taxid = range taxids {
		chain, err = t.Ancestors(taxid)
		if err != nil {
			return 0, err
		}
		if common == nil {
			common = make(map[uint32]struct{}, len(chain))
			for _, taxid = range chain {
				common[taxid] = struct{}{}
			}
			continue
		}
		m = make(map[uint32]struct{}, len(chain))
		for _, taxid = range chain {
			if _, ok = common[taxid]; ok {
				m[taxid] = struct{}{}
			}
		}
		common = m
	}

	// the chains are totally ordered by depth along one path, so the
	// first hit along any member's own chain is the deepest common one.
	chain, err = t.Ancestors(taxids[0])
	if err != nil {
		return 0, err
	}
	for _, taxid = range chain {
		if _, ok = common[taxid]; ok {
			return taxid, nil
		}
	}

	return 0, ErrNoCommonAncestor
}
