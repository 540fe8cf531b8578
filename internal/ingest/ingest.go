package ingest

// Document is a PDF discovered on disk.
type Document struct {
	Path    string
	Size    int64
	HashHex string // sha256 of the content
	Err     string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Collected  uint32
	Duplicates uint32
	Failed     uint32
}
