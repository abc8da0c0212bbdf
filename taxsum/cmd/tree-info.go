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
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"
	"github.com/taxsum/taxsum/taxdump"
	"github.com/twotwotwo/sorts/sortutil"
)

// treeInfo holds per-file statistics of a taxonomy tree.
type treeInfo struct {
	file     string
	nodes    int
	ranks    int
	root     uint32
	maxTaxid uint32

	maxDepth      int
	standardNodes int
}

var treeInfoCmd = &cobra.Command{
	Use:   "tree-info",
	Short: "Print information of taxonomy tree files",
	Long: `Print information of taxonomy tree files

Columns:
  1. file       input tree file
  2. nodes      number of nodes
  3. ranks      number of distinct rank labels
  4. root       taxid of the root
  5. max_taxid  largest taxid

Extra columns with -a/--all:
  6. max_depth            longest chain from a node up to the root
  7. standard_rank_nodes  nodes stating a canonical rank

The flag -r/--ranks switches to one row per rank label, counting the
nodes stating it.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		outFile := expandTilde(getFlagString(cmd, "out-file"))
		all := getFlagBool(cmd, "all")
		byRank := getFlagBool(cmd, "ranks")
		tabular := getFlagBool(cmd, "tabular")

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		for _, file := range files {
			if isStdin(file) {
				checkError(fmt.Errorf("stdin not supported"))
			}
		}

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(strings.ToLower(outFile), ".gz"), opt.CompressionLevel)
		checkError(errors.Wrap(err, outFile))
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		// ---------------------------------------------------------------
		// one row per rank label

		if byRank {
			if tabular {
				outfh.WriteString("file\trank\tnodes\n")
			}

			var tbl *prettytable.Table
			if !tabular {
				tbl, err = prettytable.NewTable(
					prettytable.Column{Header: "file"},
					prettytable.Column{Header: "rank"},
					prettytable.Column{Header: "nodes", AlignRight: true},
				)
				checkError(err)
				tbl.Separator = "  "
			}

			var rank string
			for _, file := range files {
				t := loadTaxonomy(opt, file)

				counts := make(map[string]int, 128)
				for taxid := range t.Nodes {
					rank, _ = t.Rank(taxid)
					counts[rank]++
				}

				names := make([]string, 0, len(counts))
				for rank := range counts {
					names = append(names, rank)
				}
				sortutil.Strings(names)

				for _, rank := range names {
					if tabular {
						fmt.Fprintf(outfh, "%s\t%s\t%d\n", file, rank, counts[rank])
					} else {
						tbl.AddRow(file, rank, humanize.Comma(int64(counts[rank])))
					}
				}
			}

			if !tabular {
				outfh.Write(tbl.Bytes())
			}
			return
		}

		// ---------------------------------------------------------------
		// one row per file

		if tabular {
			colnames := []string{"file", "nodes", "ranks", "root", "max_taxid"}
			if all {
				colnames = append(colnames, []string{"max_depth", "standard_rank_nodes"}...)
			}
			outfh.WriteString(strings.Join(colnames, "\t") + "\n")
		}

		infos := make([]treeInfo, 0, len(files))

		var rank string
		var chain []uint32
		for _, file := range files {
			t := loadTaxonomy(opt, file)

			info := treeInfo{
				file:     file,
				nodes:    t.NumNodes(),
				ranks:    t.NumRanks(),
				root:     t.Root(),
				maxTaxid: t.MaxTaxid(),
			}

			if all {
				for taxid := range t.Nodes {
					rank, _ = t.Rank(taxid)
					if taxdump.IsStandardRank(rank) {
						info.standardNodes++
					}

					chain, err = t.Ancestors(taxid)
					checkError(err)
					if len(chain) > info.maxDepth {
						info.maxDepth = len(chain)
					}
				}
			}

			if tabular {
				if !all {
					fmt.Fprintf(outfh, "%s\t%d\t%d\t%d\t%d\n",
						info.file, info.nodes, info.ranks, info.root, info.maxTaxid)
				} else {
					fmt.Fprintf(outfh, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
						info.file, info.nodes, info.ranks, info.root, info.maxTaxid,
						info.maxDepth, info.standardNodes)
				}
				continue
			}

			infos = append(infos, info)
		}

		if tabular {
			return
		}

		// format output
		columns := []prettytable.Column{
			{Header: "file"},
			{Header: "nodes", AlignRight: true},
			{Header: "ranks", AlignRight: true},
			{Header: "root", AlignRight: true},
			{Header: "max_taxid", AlignRight: true},
		}
		if all {
			columns = append(columns, []prettytable.Column{
				{Header: "max_depth", AlignRight: true},
				{Header: "standard_rank_nodes", AlignRight: true},
			}...)
		}
		tbl, err := prettytable.NewTable(columns...)
		checkError(err)
		tbl.Separator = "  "

		for _, info := range infos {
			if !all {
				tbl.AddRow(
					info.file,
					humanize.Comma(int64(info.nodes)),
					humanize.Comma(int64(info.ranks)),
					fmt.Sprintf("%d", info.root),
					fmt.Sprintf("%d", info.maxTaxid),
				)
			} else {
				tbl.AddRow(
					info.file,
					humanize.Comma(int64(info.nodes)),
					humanize.Comma(int64(info.ranks)),
					fmt.Sprintf("%d", info.root),
					fmt.Sprintf("%d", info.maxTaxid),

					humanize.Comma(int64(info.maxDepth)),
					humanize.Comma(int64(info.standardNodes)),
				)
			}
		}
		outfh.Write(tbl.Bytes())
	},
}

func init() {
	RootCmd.AddCommand(treeInfoCmd)

	treeInfoCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file ("-" for stdout, suffix .gz for gzipped out).`))

	treeInfoCmd.Flags().BoolP("all", "a", false,
		formatFlagUsage("All information, including the maximal depth and the number of nodes with canonical ranks."))

	treeInfoCmd.Flags().BoolP("ranks", "r", false,
		formatFlagUsage("Count nodes per rank label instead."))

	treeInfoCmd.Flags().BoolP("tabular", "T", false,
		formatFlagUsage("Output in machine-friendly tabular format."))

	treeInfoCmd.SetUsageTemplate(usageTemplate("[flags] <tree file> [...]"))
}
