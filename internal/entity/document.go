package entity

import (
	"errors"
	"strings"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
)

// DocumentSource identifies the input document. Exactly one of Bytes or URL is set.
type DocumentSource struct {
	Kind  string `json:"kind"` // constants.SourceBinary | constants.SourceRemote
	Name  string `json:"name,omitempty"`
	Bytes []byte `json:"-"`
	URL   string `json:"url,omitempty"`
}

func NewBinarySource(name string, b []byte) DocumentSource {
	return DocumentSource{Kind: constants.SourceBinary, Name: name, Bytes: b}
}

func NewRemoteSource(url string) DocumentSource {
	return DocumentSource{Kind: constants.SourceRemote, URL: strings.TrimSpace(url)}
}

// Ref is a short human readable reference used in logs and the run journal.
func (d DocumentSource) Ref() string {
	if d.Kind == constants.SourceRemote {
		return d.URL
	}
	if d.Name != "" {
		return d.Name
	}
	return "upload"
}

func (d DocumentSource) Validate() error {
	switch d.Kind {
	case constants.SourceBinary:
		if len(d.Bytes) == 0 {
			return errors.New("binary source has no bytes")
		}
		if d.URL != "" {
			return errors.New("binary source must not carry a url")
		}
	case constants.SourceRemote:
		if err := common.ValidateAndReturnError(common.NewValidator().Field("url", d.URL, common.Required)); err != nil {
			return err
		}
		if len(d.Bytes) > 0 {
			return errors.New("remote source must not carry bytes")
		}
	default:
		return errors.New("unknown source kind: " + d.Kind)
	}
	return nil
}
