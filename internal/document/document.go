// Package document turns a flat corpus directory into page-level documents
// and splits them into overlapping, size-bounded chunks for embedding.
package document

const (
	// MetadataSource names the originating file of a document or chunk.
	MetadataSource = "source"
	// MetadataPage holds the 1-based page number for paged formats.
	MetadataPage = "page"
)

// Document is one extractable unit (a page, or a whole text file) of a source file.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Source returns the originating file name.
func (d Document) Source() string {
	return d.Metadata[MetadataSource]
}

// Chunk is a contiguous, bounded slice of a Document's content.
type Chunk struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Source returns the originating file name.
func (c Chunk) Source() string {
	return c.Metadata[MetadataSource]
}

func copyMetadata(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
