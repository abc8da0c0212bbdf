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

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
	"github.com/taxsum/taxsum/taxdump"
	"github.com/twotwotwo/sorts"
	"gopkg.in/yaml.v2"
)

// classHeaderField is the first column name of a classification table
// header line.
const classHeaderField = "readID"

// taxa missing from the rank ordering sort after all known ranks
const unknownRankDepth = 1 << 30

// ClassRecord is one parsed classification line: a read name and the
// taxid it was assigned to.
type ClassRecord struct {
	Name  string
	Taxid uint32
}

// parseClassRecord parses one line of a classification table, columns
// being the read name, the category of the match and the taxid.
// The header line yields ok == false.
func parseClassRecord(line string, numFields int, items *[]string) (*ClassRecord, bool, error) {
	stringSplitNByByte(line, '\t', numFields, items)

	name := (*items)[0]
	if name == classHeaderField {
		return nil, false, nil
	}
	if len(*items) < 3 {
		return nil, false, fmt.Errorf("invalid classification record: %s", line)
	}

	category := (*items)[1]

	taxid, err := strconv.ParseUint((*items)[2], 10, 32)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse taxid: %s", (*items)[2])
	}

	r := &ClassRecord{Name: name, Taxid: uint32(taxid)}

	if category == "no rank" {
		// matches labeled "no rank" belong to the root, whatever the
		// taxid column says
		r.Taxid = taxdump.RootTaxid
	} else if r.Taxid == 0 && category != "unclassified" {
		// taxid 0 is reserved for unclassified reads
		return nil, false, fmt.Errorf("taxid 0 with category %q for read %s, index building may have failed", category, name)
	}

	return r, true, nil
}

// ReadClass collects the distinct candidate taxids of one read.
type ReadClass struct {
	Name   string
	Taxids []uint32
}

// AddTaxid appends a candidate taxid, keeping first-seen order and
// ignoring repeats.
func (r *ReadClass) AddTaxid(taxid uint32) {
	for _, t := range r.Taxids {
		if t == taxid {
			return
		}
	}
	r.Taxids = append(r.Taxids, taxid)
}

// classifyRead resolves the candidate taxids of a read to a single
// taxon. Multiple candidates resolve to their lowest common ancestor,
// taxid 0 only counting when it is the sole candidate.
func classifyRead(t *taxdump.Taxonomy, read *ReadClass) (uint32, bool, error) {
	if len(read.Taxids) == 0 {
		return 0, false, nil
	}
	if len(read.Taxids) == 1 {
		return read.Taxids[0], true, nil
	}

	taxids := make([]uint32, 0, len(read.Taxids))
	for _, taxid := range read.Taxids {
		if taxid == taxdump.UnclassifiedTaxid {
			continue
		}
		taxids = append(taxids, taxid)
	}

	lca, err := t.LCA(taxids)
	if err != nil {
		return 0, false, fmt.Errorf("resolving read %s: %s", read.Name, err)
	}
	return lca, true, nil
}

// taxonCount pairs a taxon with its cumulative read count, sorting by
// rank depth and then by taxid.
type taxonCount struct {
	Taxid uint32
	Rank  string
	Depth int
	Count int
}

type taxonCounts []taxonCount

func (s taxonCounts) Len() int      { return len(s) }
func (s taxonCounts) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s taxonCounts) Less(i, j int) bool {
	if s[i].Depth == s[j].Depth {
		return s[i].Taxid < s[j].Taxid
	}
	return s[i].Depth < s[j].Depth
}

// writeSummaryTable writes the one-row overview table: read counts and
// percentages per standard rank, and the number of distinct taxa
// counted at each canonical rank.
func writeSummaryTable(outFile string, classFile string, readCount int,
	countPerRank map[string]int, cumulativeCounts map[uint32]int, t *taxdump.Taxonomy) error {

	// distinct taxa per rank, using the rank stated in the tree file
	labelSet := make(map[string]struct{}, len(taxdump.StandardRankNames))
	for _, rank := range taxdump.StandardRankNames {
		labelSet[rank] = struct{}{}
	}
	rankTaxaCounts := make(map[string]int, len(taxdump.StandardRankNames))
	for taxid, count := range cumulativeCounts {
		if count == 0 {
			continue
		}
		rank, ok := t.Rank(taxid)
		if !ok {
			continue
		}
		if _, ok = labelSet[rank]; ok {
			rankTaxaCounts[rank]++
		}
	}

	outfh, err := xopen.Wopen(outFile)
	if err != nil {
		return fmt.Errorf("fail to write summary table: %s", err)
	}
	defer outfh.Close()

	var header strings.Builder
	header.WriteString("file\tread_count")
	for _, rank := range taxdump.StandardRankNames {
		fmt.Fprintf(&header, "\t%s_read_count\t%s_read_percent", rank, rank)
		if taxdump.IsStandardRank(rank) {
			fmt.Fprintf(&header, "\t%s_taxa_count", rank)
		}
	}
	outfh.WriteString(header.String())
	outfh.WriteString("\n")

	var total int
	for _, count := range countPerRank {
		total += count
	}

	var row strings.Builder
	fmt.Fprintf(&row, "%s\t%d", classFile, readCount)
	var totalCount int
	for _, rank := range taxdump.StandardRankNames {
		count := countPerRank[rank]
		totalCount += count
		var percent float64
		if total > 0 {
			percent = 100 * float64(count) / float64(total)
		}
		fmt.Fprintf(&row, "\t%d\t%.4f", count, percent)
		if taxdump.IsStandardRank(rank) {
			fmt.Fprintf(&row, "\t%d", rankTaxaCounts[rank])
		}
	}

	if totalCount != readCount {
		return fmt.Errorf("per-rank counts add up to %d reads, expected %d", totalCount, readCount)
	}

	outfh.WriteString(row.String())
	outfh.WriteString("\n")

	return nil
}

// writeCumulativeTable writes the per-taxon cumulative read fractions,
// one column per counted taxon, ordered from the root down to the most
// specific ranks.
func writeCumulativeTable(outFile string, classFile string, readCount int,
	cumulativeCounts map[uint32]int, t *taxdump.Taxonomy) error {

	counts := make(taxonCounts, 0, len(cumulativeCounts))
	warnedRanks := make(map[string]struct{}, 4)
	for taxid, count := range cumulativeCounts {
		rank, _ := t.Rank(taxid)
		depth, ok := taxdump.RankDepth(rank)
		if !ok {
			depth = unknownRankDepth
			if _, warned := warnedRanks[rank]; !warned {
				log.Warningf("rank %q not in the rank ordering, sorting it last", rank)
				warnedRanks[rank] = struct{}{}
			}
		}
		counts = append(counts, taxonCount{Taxid: taxid, Rank: rank, Depth: depth, Count: count})
	}
	sorts.Quicksort(counts)

	outfh, err := xopen.Wopen(outFile)
	if err != nil {
		return fmt.Errorf("fail to write count table: %s", err)
	}
	defer outfh.Close()

	outfh.WriteString("read_set")
	for _, tc := range counts {
		fmt.Fprintf(outfh, "\t%s-%d", tc.Rank, tc.Taxid)
	}
	outfh.WriteString("\n")

	outfh.WriteString(classFile)
	for _, tc := range counts {
		fmt.Fprintf(outfh, "\t%.6f", float64(tc.Count)/float64(readCount))
	}
	outfh.WriteString("\n")

	return nil
}

// SummarizeInfo is the run metadata written next to the result tables.
type SummarizeInfo struct {
	Version    string `yaml:"version"`
	File       string `yaml:"file"`
	Tree       string `yaml:"tree"`
	Reads      int    `yaml:"reads"`
	Classified int    `yaml:"classified"`

	ReadsPerRank map[string]int `yaml:"readsPerRank"`
	Taxa         int            `yaml:"taxa"`
}

func (i SummarizeInfo) WriteTo(file string) error {
	data, err := yaml.Marshal(i)
	if err != nil {
		return fmt.Errorf("fail to marshal summary info")
	}

	w, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("fail to write summary info file: %s", file)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("fail to write summary info file: %s", file)
	}

	w.Close()
	return nil
}
