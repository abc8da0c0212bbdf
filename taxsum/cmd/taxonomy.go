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
	"github.com/pkg/errors"
	"github.com/taxsum/taxsum/taxdump"
)

func loadTaxonomy(opt *Options, file string) *taxdump.Taxonomy {
	if opt.Verbose || opt.Log2File {
		log.Infof("loading taxonomy tree from: %s", file)
	}

	checkError(checkCompressionType(file))

	t, err := taxdump.NewTaxonomyWithRanksFromNCBI(file)
	checkError(errors.Wrapf(err, "loading taxonomy tree: %s", file))

	if opt.Verbose || opt.Log2File {
		log.Infof("  %d nodes in %d ranks loaded, root: %d, max taxid: %d",
			t.NumNodes(), t.NumRanks(), t.Root(), t.MaxTaxid())
	}

	t.CacheAncestors()

	return t
}
