package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF")

type fakeRunner struct {
	mu      sync.Mutex
	stdout  string
	stderr  string
	err     error
	calls   [][]string
	content [][]byte
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(args) >= 2 {
		b, _ := os.ReadFile(args[len(args)-2])
		f.content = append(f.content, b)
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newTestExtractor(r Runner, cfg Config) *Extractor {
	return NewExtractorWithRunner(cfg, r, nil)
}

// ============================================================================
// Binary sources
// ============================================================================

func TestExtract_BinarySource(t *testing.T) {
	runner := &fakeRunner{stdout: "Paris is the capital\nof France.\f"}
	ex := newTestExtractor(runner, Config{Pdftotext: "/usr/bin/pdftotext"})

	res, err := ex.Extract(context.Background(), entity.NewBinarySource("notes.pdf", samplePDF))

	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, len(samplePDF), res.Bytes)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"/usr/bin/pdftotext", "-enc", "UTF-8", "-eol", "unix"}, runner.calls[0][:5])
	assert.Equal(t, "-", runner.calls[0][len(runner.calls[0])-1])
	assert.Equal(t, samplePDF, runner.content[0])
}

func TestExtract_ImageOnlyPDF(t *testing.T) {
	runner := &fakeRunner{stdout: "\f  \f"}
	ex := newTestExtractor(runner, Config{})

	_, err := ex.Extract(context.Background(), entity.NewBinarySource("scan.pdf", samplePDF))

	assert.Equal(t, common.KindExtraction, common.KindOf(err))
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
	assert.Contains(t, err.Error(), "image-based or password-protected")
}

func TestExtract_BinaryNotPDF(t *testing.T) {
	runner := &fakeRunner{stdout: "never"}
	ex := newTestExtractor(runner, Config{})

	_, err := ex.Extract(context.Background(), entity.NewBinarySource("notes.docx", []byte("PK\x03\x04")))

	assert.ErrorIs(t, err, common.ErrInvalidSignature)
	assert.Empty(t, runner.calls)
}

func TestExtract_RunnerFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("signal: killed"), stderr: "Syntax Error"}
	ex := newTestExtractor(runner, Config{})

	res, err := ex.Extract(context.Background(), entity.NewBinarySource("broken.pdf", samplePDF))

	assert.Equal(t, common.KindExtraction, common.KindOf(err))
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Equal(t, []string{"Syntax Error"}, res.Warnings)
}

func TestExtract_InvalidSource(t *testing.T) {
	ex := newTestExtractor(&fakeRunner{}, Config{})

	_, err := ex.Extract(context.Background(), entity.DocumentSource{Kind: "binary"})

	assert.Equal(t, common.KindExtraction, common.KindOf(err))
}

// ============================================================================
// Remote sources
// ============================================================================

func TestExtract_RemoteSource(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write(samplePDF)
	}))
	defer srv.Close()
	runner := &fakeRunner{stdout: "Remote text\fPage two\f"}
	ex := newTestExtractor(runner, Config{})

	res, err := ex.Extract(context.Background(), entity.NewRemoteSource(srv.URL+"/doc.pdf"))

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", accept)
	assert.Equal(t, "Remote text\nPage two", res.Text)
	assert.Equal(t, 2, res.Pages)
}

func TestExtract_RemoteSignatureGate(t *testing.T) {
	bodies := [][]byte{
		[]byte("<!doctype html><html>login</html>"),
		[]byte("%PD"),
		{},
		[]byte(" %PDF-1.4"),
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(body)
		}))
		runner := &fakeRunner{stdout: "should not be used"}
		ex := newTestExtractor(runner, Config{})

		_, err := ex.Extract(context.Background(), entity.NewRemoteSource(srv.URL))

		assert.Equal(t, common.KindExtraction, common.KindOf(err))
		assert.ErrorIs(t, err, common.ErrInvalidSignature)
		assert.Empty(t, runner.calls, "decoder must not run for body %q", body)
		srv.Close()
	}
}

func TestExtract_RemoteStatusMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "invalid"},
		{http.StatusForbidden, "denied"},
		{http.StatusNotFound, "not found"},
		{http.StatusInternalServerError, "status 500"},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()
			ex := newTestExtractor(&fakeRunner{}, Config{ProxyURL: "http://127.0.0.1:1/?url="})

			_, err := ex.Extract(context.Background(), entity.NewRemoteSource(srv.URL))

			var pe *common.PipelineError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, common.KindNetwork, pe.Kind)
			assert.Contains(t, pe.Message, tc.want)
		})
	}
}

func TestExtract_RemoteProxyFallback(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL + "/lecture.pdf"
	dead.Close()

	var relayed string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayed = r.URL.Query().Get("url")
		_, _ = w.Write(samplePDF)
	}))
	defer proxy.Close()

	runner := &fakeRunner{stdout: "via proxy"}
	ex := newTestExtractor(runner, Config{ProxyURL: proxy.URL + "/relay?url=", FetchTimeout: 5 * time.Second})

	res, err := ex.Extract(context.Background(), entity.NewRemoteSource(deadURL))

	require.NoError(t, err)
	assert.Equal(t, deadURL, relayed)
	assert.Equal(t, "via proxy", res.Text)
}

func TestExtract_RemoteTransportFailureWithoutProxy(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()
	ex := newTestExtractor(&fakeRunner{}, Config{})

	_, err := ex.Extract(context.Background(), entity.NewRemoteSource(deadURL))

	var pe *common.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, common.KindNetwork, pe.Kind)
	assert.Contains(t, pe.Message, "upload the file directly")
}

func TestExtract_RemoteInvalidURL(t *testing.T) {
	ex := newTestExtractor(&fakeRunner{}, Config{})

	_, err := ex.Extract(context.Background(), entity.NewRemoteSource("ftp://example.com/a.pdf"))

	var pe *common.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, common.KindNetwork, pe.Kind)
	assert.Contains(t, pe.Message, "invalid")
}

func TestExtract_RemoteTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(append(append([]byte{}, samplePDF...), make([]byte, 2<<20)...))
	}))
	defer srv.Close()
	ex := newTestExtractor(&fakeRunner{}, Config{MaxDocumentBytes: 1 << 20})

	_, err := ex.Extract(context.Background(), entity.NewRemoteSource(srv.URL))

	assert.Equal(t, common.KindExtraction, common.KindOf(err))
	assert.Contains(t, err.Error(), "larger than 1 MB")
}

func TestExtract_RemoteCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := newTestExtractor(&fakeRunner{}, Config{ProxyURL: srv.URL + "/?url="})

	_, err := ex.Extract(ctx, entity.NewRemoteSource(srv.URL))

	assert.Equal(t, common.KindNetwork, common.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}
