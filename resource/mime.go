package resource

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Classifier maps a served path to a content type
type Classifier interface {
	Classify(path string) (string, error)
}

// MimeClassifier sniffs file content. When sniffing only finds generic
// text or binary, a type registered for the file extension wins.
type MimeClassifier struct {
	Root string
}

// NewMimeClassifier creates a Classifier for files below root
func NewMimeClassifier(root string) *MimeClassifier {
	return &MimeClassifier{Root: root}
}

// Classify returns the content type of path
func (m *MimeClassifier) Classify(path string) (string, error) {
	full, err := resolve(m.Root, path)
	if err != nil {
		return "", err
	}

	detected, err := mimetype.DetectFile(full)
	if err != nil {
		return "", statError(path, err)
	}

	if isGeneric(detected) {
		if byExt := mime.TypeByExtension(filepath.Ext(full)); byExt != "" {
			return byExt, nil
		}
	}
	return detected.String(), nil
}

func isGeneric(m *mimetype.MIME) bool {
	base := strings.TrimSpace(strings.SplitN(m.String(), ";", 2)[0])
	return base == "text/plain" || base == "application/octet-stream"
}
