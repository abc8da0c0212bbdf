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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilepathTrimExtension(t *testing.T) {
	tests := []struct {
		file      string
		name      string
		extension string
	}{
		{"sample.tsv", "sample", ".tsv"},
		{"sample.tsv.gz", "sample", ".tsv.gz"},
		{"sample.txt.GZ", "sample", ".txt.gz"},
		{"dir/sample.tsv", "dir/sample", ".tsv"},
		{"sample", "sample", ""},
		{"sample.gz", "sample", ".gz"},
	}
	for _, test := range tests {
		name, extension := filepathTrimExtension(test.file)
		assert.Equal(t, test.name, name, "name of %s", test.file)
		assert.Equal(t, test.extension, extension, "extension of %s", test.file)
	}
}

func TestStringSplitNByByte(t *testing.T) {
	items := make([]string, 4)
	stringSplitNByByte("a\tb\tc\td\te", '\t', 4, &items)
	assert.Equal(t, []string{"a", "b", "c", "d\te"}, items, "the last slot takes the remainder")

	items = make([]string, 4)
	stringSplitNByByte("a\tb", '\t', 4, &items)
	assert.Equal(t, []string{"a", "b"}, items)

	items = make([]string, 4)
	stringSplitNByByte("", '\t', 4, &items)
	assert.Equal(t, []string{""}, items)
}

func TestUint32Slice2StringSlice(t *testing.T) {
	assert.Equal(t, []string{"3", "4", "0"}, uint32Slice2StringSlice([]uint32{3, 4, 0}))
	assert.Equal(t, []string{}, uint32Slice2StringSlice(nil))
}
