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
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBytes(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, data, 0644))
	return file
}

func TestCheckCompressionType(t *testing.T) {
	dir := t.TempDir()

	plain := writeBytes(t, dir, "plain.tsv", []byte("readID\tseqID\ttaxID\n"))
	assert.NoError(t, checkCompressionType(plain))

	empty := writeBytes(t, dir, "empty.tsv", nil)
	assert.NoError(t, checkCompressionType(empty))

	gzipped := filepath.Join(dir, "data.tsv.gz")
	fh, err := os.Create(gzipped)
	require.NoError(t, err)
	gw := gzip.NewWriter(fh)
	_, err = gw.Write([]byte("readID\tseqID\ttaxID\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, fh.Close())
	assert.NoError(t, checkCompressionType(gzipped))

	bzipped := writeBytes(t, dir, "data.tsv.bz2", []byte{0x42, 0x5a, 0x68, 0x39, 0x31})
	err = checkCompressionType(bzipped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bzip2")
	assert.Contains(t, err.Error(), "use gzip instead")

	zipped := writeBytes(t, dir, "data.zip", []byte{0x50, 0x4b, 0x03, 0x04, 0x14})
	err = checkCompressionType(zipped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip")

	assert.NoError(t, checkCompressionType("-"), "stdin is not checked")

	assert.Error(t, checkCompressionType(filepath.Join(dir, "missing.tsv")))
}

func TestOutStream(t *testing.T) {
	dir := t.TempDir()

	// plain, parent directories created on demand
	file := filepath.Join(dir, "sub", "out.tsv")
	outfh, gw, w, err := outStream(file, false, -1)
	require.NoError(t, err)
	assert.Nil(t, gw)
	_, err = outfh.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, outfh.Flush())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	// gzipped
	fileGz := filepath.Join(dir, "out.tsv.gz")
	outfh, gw, w, err = outStream(fileGz, true, -1)
	require.NoError(t, err)
	require.NotNil(t, gw)
	_, err = outfh.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, outfh.Flush())
	require.NoError(t, gw.Close())
	require.NoError(t, w.Close())

	fr, err := os.Open(fileGz)
	require.NoError(t, err)
	defer fr.Close()
	gr, err := gzip.NewReader(fr)
	require.NoError(t, err)
	defer gr.Close()
	var buf strings.Builder
	_, err = io.Copy(&buf, gr)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", buf.String())
}
