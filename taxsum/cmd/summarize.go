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
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/breader"
	"github.com/spf13/cobra"
	"github.com/taxsum/taxsum/taxdump"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
	"github.com/zeebo/wyhash"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize per-read taxonomic classifications",
	Long: `Summarize per-read taxonomic classifications

This command takes classification tables (e.g., generated by Centrifuge)
and a taxonomy tree, resolves every read to a single taxon, and reports
per-rank read counts along with cumulative per-taxon counts.

Input:
  1. Classification tables, tab-delimited with at least three columns:
     the read name, the category of the match and the taxid. Lines
     sharing a read name are the candidate matches of one read.
     Files may be gzipped, but not bzip2- or zip-compressed.
  2. A taxonomy tree file carrying the taxid, the parent taxid and the
     rank in columns 1, 3 and 5, the layout of NCBI nodes.dmp.
     It may be gzipped as well (-t/--tree).

Algorithm:
  1. The candidate taxids of a read are deduplicated. A single
     candidate is the final assignment, even the unclassified taxid 0.
     Multiple candidates resolve to their lowest common ancestor,
     taxid 0 being ignored.
  2. Every taxon is also assigned a standard rank: its own rank if
     canonical (domain, phylum, class, order, family, genus, species),
     the rank of its nearest canonical ancestor otherwise, falling
     back to "root".
  3. The count of a classified read propagates from the assigned taxon
     up to the root.

Output (for an input file named like sample.tsv[.gz]):
  1. sample_reads.tsv    per-read assignments (-z/--gzip to compress)
  2. sample_summary.tsv  read counts and percentages per standard rank
  3. sample_counts.tsv   cumulative read fractions per counted taxon
  4. sample_run.yml      run metadata

Attention:
  1. Output file names derive from input file names, or from
     -o/--out-prefix for a single input file.
  2. Therefore STDIN is not supported.

Examples:
  1. Default:
       taxsum summarize -t tree.tsv classifications.tsv.gz
  2. Custom output prefix and gzipped per-read table:
       taxsum summarize -t tree.tsv -o sample -z classifications.tsv

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		treeFile := expandTilde(getFlagString(cmd, "tree"))
		if treeFile == "" {
			checkError(fmt.Errorf("flag -t/--tree needed"))
		}

		outPrefix := expandTilde(getFlagString(cmd, "out-prefix"))
		gzipDetail := getFlagBool(cmd, "gzip")
		chunkSize := getFlagPositiveInt(cmd, "line-chunk-size")

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		for _, file := range files {
			if isStdin(file) {
				checkError(fmt.Errorf("stdin not supported, output file names derive from input file names"))
			}
		}
		if outPrefix != "" && len(files) > 1 {
			checkError(fmt.Errorf("flag -o/--out-prefix only allowed for a single input file"))
		}

		if opt.Verbose || opt.Log2File {
			log.Info()
			log.Infof("-------------------- [main parameters] --------------------")
			log.Infof("  taxonomy tree: %s", treeFile)
			log.Infof("  classification files: %d", len(files))
			log.Infof("  chunk size: %d", chunkSize)
			log.Infof("-------------------- [main parameters] --------------------")
			log.Info()
		}

		taxdb := loadTaxonomy(opt, treeFile)

		for _, file := range files {
			prefix := outPrefix
			if prefix == "" {
				prefix, _ = filepathTrimExtension(file)
			}
			summarizeClassifications(opt, taxdb, file, treeFile, prefix, gzipDetail, chunkSize)
		}
	},
}

// summarizeClassifications processes one classification table and
// writes the per-read table, the rank summary, the cumulative count
// table and the run metadata, all named after the given prefix.
func summarizeClassifications(opt *Options, taxdb *taxdump.Taxonomy,
	file string, treeFile string, prefix string, gzipDetail bool, chunkSize int) {

	checkError(checkCompressionType(file))

	if opt.Verbose || opt.Log2File {
		log.Infof("processing file: %s", file)
	}

	// ---------------------------------------------------------------
	// group candidate taxids by read

	numFields := 4

	fn := func(line string) (interface{}, bool, error) {
		if line == "" || line == "\n" { // ignoring blank lines
			return nil, false, nil
		}

		tmp := make([]string, numFields)

		record, ok, err := parseClassRecord(line, numFields, &tmp)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		return record, true, nil
	}

	reader, err := breader.NewBufferedReader(file, opt.NumCPUs, chunkSize, fn)
	checkError(errors.Wrap(err, file))

	readIndex := make(map[uint64]int, mapInitSize)
	reads := make([]*ReadClass, 0, mapInitSize)

	var data interface{}
	var record *ClassRecord
	var h uint64
	var idx int
	var ok bool
	var nRecords int

	for chunk := range reader.Ch {
		checkError(chunk.Err)

		for _, data = range chunk.Data {
			record = data.(*ClassRecord)
			nRecords++

			h = wyhash.HashString(record.Name, 1)
			if idx, ok = readIndex[h]; ok {
				reads[idx].AddTaxid(record.Taxid)
			} else {
				readIndex[h] = len(reads)
				reads = append(reads, &ReadClass{Name: record.Name, Taxids: []uint32{record.Taxid}})
			}
		}
	}

	readCount := len(reads)

	if opt.Verbose || opt.Log2File {
		log.Infof("  %d classification records of %d reads loaded", nRecords, readCount)
	}

	// ---------------------------------------------------------------
	// resolve reads and aggregate counts

	outFileReads := prefix + "_reads.tsv"
	if gzipDetail {
		outFileReads += ".gz"
	}
	outfh, gw, w, err := outStream(outFileReads, gzipDetail, opt.CompressionLevel)
	checkError(errors.Wrap(err, outFileReads))
	defer func() {
		outfh.Flush()
		if gw != nil {
			gw.Close()
		}
		w.Close()
	}()

	outfh.WriteString("read_name\talignment_tax_ids\tlca_tax_id\tlca_rank\tlca_standard_rank\n")

	var pbs *mpb.Progress
	var bar *mpb.Bar
	var tLast time.Time
	if opt.Verbose {
		pbs = mpb.New(mpb.WithWidth(79))
		bar = pbs.AddBar(int64(readCount),
			mpb.BarStyle("[=>-]<+"),
			mpb.PrependDecorators(
				decor.Name("summarizing reads: ", decor.WC{W: len("summarize") + 1, C: decor.DidentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
		tLast = time.Now()
	}

	countPerRank := make(map[string]int, len(taxdump.StandardRankNames))
	cumulativeCounts := make(map[uint32]int, mapInitSize)

	var taxid uint32
	var rank, standardRank string
	var chain []uint32

	for _, read := range reads {
		taxid, ok, err = classifyRead(taxdb, read)
		checkError(err)
		if !ok {
			continue
		}

		rank, ok = taxdb.Rank(taxid)
		if !ok {
			checkError(fmt.Errorf("taxid %d of read %s not in the taxonomy tree (classification file built against another tree?)", taxid, read.Name))
		}
		standardRank, ok = taxdb.StandardRank(taxid)
		if !ok {
			checkError(fmt.Errorf("taxid %d of read %s has no standard rank (classification file built against another tree?)", taxid, read.Name))
		}

		fmt.Fprintf(outfh, "%s\t%s\t%d\t%s\t%s\n",
			read.Name, strings.Join(uint32Slice2StringSlice(read.Taxids), ","),
			taxid, rank, standardRank)

		countPerRank[standardRank]++

		if taxid > 0 {
			chain, err = taxdb.Ancestors(taxid)
			checkError(err)
			for _, ancestor := range chain {
				cumulativeCounts[ancestor]++
			}
		}

		if opt.Verbose {
			bar.Increment()
			bar.DecoratorEwmaUpdate(time.Since(tLast))
			tLast = time.Now()
		}
	}

	if opt.Verbose {
		pbs.Wait()
	}

	// ---------------------------------------------------------------
	// write result tables

	outFileSummary := prefix + "_summary.tsv"
	checkError(writeSummaryTable(outFileSummary, file, readCount, countPerRank, cumulativeCounts, taxdb))

	outFileCounts := prefix + "_counts.tsv"
	checkError(writeCumulativeTable(outFileCounts, file, readCount, cumulativeCounts, taxdb))

	info := SummarizeInfo{
		Version:    VERSION,
		File:       file,
		Tree:       treeFile,
		Reads:      readCount,
		Classified: cumulativeCounts[taxdump.RootTaxid],

		ReadsPerRank: countPerRank,
		Taxa:         len(cumulativeCounts),
	}
	outFileInfo := prefix + "_run.yml"
	checkError(info.WriteTo(outFileInfo))

	if opt.Verbose || opt.Log2File {
		log.Infof("  %d reads summarized, %d of them classified, %d taxa counted",
			readCount, info.Classified, info.Taxa)
		log.Infof("  per-read assignments saved to %s", outFileReads)
		log.Infof("  rank summary saved to %s", outFileSummary)
		log.Infof("  cumulative counts saved to %s", outFileCounts)
		log.Infof("  run metadata saved to %s", outFileInfo)
	}
}

func init() {
	RootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringP("tree", "t", "",
		formatFlagUsage(`Taxonomy tree file with the taxid, parent taxid and rank in columns 1, 3 and 5 (gzipped or not).`))

	summarizeCmd.Flags().StringP("out-prefix", "o", "",
		formatFlagUsage(`Out file prefix, only allowed for a single input file. Default: the input file name without its extension.`))

	summarizeCmd.Flags().BoolP("gzip", "z", false,
		formatFlagUsage(`Gzip the per-read table.`))

	summarizeCmd.Flags().IntP("line-chunk-size", "", 5000,
		formatFlagUsage(`Number of lines to process for each thread.`))

	summarizeCmd.SetUsageTemplate(usageTemplate("[flags] -t <tree file> <classification file> [...]"))
}
