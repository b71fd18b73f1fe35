// Package search keeps an in-memory full-text index over a project's files.
package search

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// MaxFileSize skips files larger than this many bytes.
const MaxFileSize = 1 << 20

// DefaultLimit is the number of hits returned when none is requested.
const DefaultLimit = 10

// Hit is one matching file.
type Hit struct {
	Path  string
	Score float64
}

// Index is an in-memory index of one project's text files.
type Index struct {
	index bleve.Index
	root  string
	count int
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	fileMapping := bleve.NewDocumentMapping()

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	fileMapping.AddFieldMappingsAt("path", pathField)

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = standard.Name
	nameField.Store = false
	fileMapping.AddFieldMappingsAt("name", nameField)

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = false
	fileMapping.AddFieldMappingsAt("content", contentField)

	indexMapping.DefaultMapping = fileMapping
	return indexMapping
}

// Build indexes files, given as slash-separated paths relative to root.
// Unreadable, oversized and binary files are skipped.
func Build(root string, files []string) (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	ix := &Index{index: index, root: root}
	batch := index.NewBatch()
	for _, rel := range files {
		data, ok := readText(filepath.Join(root, filepath.FromSlash(rel)))
		if !ok {
			continue
		}
		doc := map[string]interface{}{
			"path":    rel,
			"name":    nameTerms(rel),
			"content": string(data),
		}
		if err := batch.Index(rel, doc); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to index %s: %w", rel, err)
		}
		ix.count++
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to write search index: %w", err)
	}
	return ix, nil
}

// Len returns the number of indexed files.
func (ix *Index) Len() int {
	return ix.count
}

// Search returns up to limit files matching q in their content or path,
// best match first. A blank query matches nothing.
func (ix *Index) Search(q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	content := bleve.NewMatchQuery(q)
	content.SetField("content")
	name := bleve.NewMatchQuery(q)
	name.SetField("name")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(content, name))
	req.Size = limit

	res, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{Path: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.index.Close()
}

// nameTerms makes path components searchable as words.
func nameTerms(rel string) string {
	return strings.NewReplacer("/", " ", ".", " ", "_", " ", "-", " ").Replace(rel)
}

func readText(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > MaxFileSize {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil || bytes.IndexByte(data, 0) >= 0 {
		return nil, false
	}
	return data, true
}
