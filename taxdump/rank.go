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

// StandardRankNames lists all standard rank labels in report order.
// Besides the seven canonical biological ranks, it carries the two
// bookkeeping labels: "unclassified" for taxid 0 and "root" for the
// root node.
var StandardRankNames = []string{
	"unclassified",
	"root",
	"domain",
	"phylum",
	"class",
	"order",
	"family",
	"genus",
	"species",
}

// TaxaCountRankNames lists the seven canonical biological ranks,
// for which distinct-taxa counts are reported.
var TaxaCountRankNames = []string{
	"domain",
	"phylum",
	"class",
	"order",
	"family",
	"genus",
	"species",
}

var canonicalRanks = map[string]struct{}{
	"domain":  {},
	"phylum":  {},
	"class":   {},
	"order":   {},
	"family":  {},
	"genus":   {},
	"species": {},
}

// IsStandardRank tells whether a rank label is one of the seven
// canonical biological ranks (domain down to species). The two
// bookkeeping labels, "unclassified" and "root", belong to taxid 0
// and the root node only and are not canonical ranks.
func IsStandardRank(rank string) bool {
	_, ok := canonicalRanks[rank]
	return ok
}

// rankDepths orders known rank labels from the root (0) down to the
// most specific. Used for sorting report columns, nothing else depends
// on it.
var rankDepths = map[string]int{
	"root":             0,
	"domain":           1,
	"subdomain":        2,
	"hyperkingdom":     3,
	"superkingdom":     4,
	"kingdom":          5,
	"subkingdom":       6,
	"infrakingdom":     7,
	"parvkingdom":      8,
	"superphylum":      9,
	"phylum":           10,
	"subphylum":        11,
	"infraphylum":      12,
	"microphylum":      13,
	"superclass":       14,
	"class":            15,
	"subclass":         16,
	"infraclass":       17,
	"parvclass":        18,
	"superdivision":    19,
	"division":         20,
	"subdivision":      21,
	"infradivision":    22,
	"superlegion":      23,
	"legion":           24,
	"sublegion":        25,
	"infralegion":      26,
	"supercohort":      27,
	"cohort":           28,
	"subcohort":        29,
	"infracohort":      30,
	"gigaorder":        31,
	"magnorder":        32,
	"grandorder":       33,
	"mirorder":         34,
	"superorder":       35,
	"order":            36,
	"nanorder":         37,
	"hypoorder":        38,
	"minorder":         39,
	"suborder":         40,
	"infraorder":       41,
	"parvorder":        42,
	"microorder":       43,
	"gigafamily":       44,
	"megafamily":       45,
	"grandfamily":      46,
	"hyperfamily":      47,
	"superfamily":      48,
	"epifamily":        49,
	"family":           50,
	"subfamily":        51,
	"infrafamily":      52,
	"supertribe":       53,
	"tribe":            54,
	"subtribe":         55,
	"infratribe":       56,
	"genus":            57,
	"subgenus":         58,
	"section":          59,
	"subsection":       60,
	"series":           61,
	"subseries":        62,
	"species group":    63,
	"species subgroup": 64,
	"superspecies":     65,
	"species":          66,
	"subspecies":       67,
	"varietas":         68,
	"subvarietas":      69,
	"forma":            70,
	"subforma":         71,
	"strain":           72,
	"no rank":          73,
}

// RankDepth returns the depth of a rank label, 0 for the root and
// increasing toward more specific ranks. ok is false for labels not in
// the table, callers decide how to order those.
func RankDepth(rank string) (int, bool) {
	depth, ok := rankDepths[rank]
	return depth, ok
}
