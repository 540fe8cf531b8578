package constants

import "strings"

// PDFMagic is the four byte signature every PDF starts with.
var PDFMagic = []byte("%PDF")

const PDFMimeType = "application/pdf"

// SourceKind values recorded for a document source.
const (
	SourceBinary = "binary"
	SourceRemote = "remote"
)

// AllowedExtensions holds the file extensions picked up by directory discovery.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
