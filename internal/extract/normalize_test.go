package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinPages(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantText  string
		wantPages int
	}{
		{"single page no feed", "Paris is   the capital\nof France.", "Paris is the capital of France.", 1},
		{"trailing feed", "Page one\f", "Page one", 1},
		{"two pages", "First  page\r\nline two\fSecond\tpage\f", "First page line two\nSecond page", 2},
		{"blank middle page", "a\f \f b\f", "a\n\nb", 3},
		{"empty", "", "", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, pages := JoinPages(tc.raw)
			assert.Equal(t, tc.wantText, text)
			assert.Equal(t, tc.wantPages, pages)
		})
	}
}

func TestHasPDFSignature(t *testing.T) {
	assert.True(t, HasPDFSignature([]byte("%PDF-1.7\n...")))
	assert.True(t, HasPDFSignature([]byte{0x25, 0x50, 0x44, 0x46}))
	assert.False(t, HasPDFSignature([]byte("%PD")))
	assert.False(t, HasPDFSignature([]byte("<html>%PDF")))
	assert.False(t, HasPDFSignature(nil))
}
