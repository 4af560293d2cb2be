package extract

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIMEType sniffs content and falls back to the file extension when the
// sniffer only recognises a generic container. Unknown types are returned as
// sniffed so that validation can reject them.
func DetectMIMEType(name string, content []byte) string {
	detected := mimetype.Detect(content)

	for m := detected; m != nil; m = m.Parent() {
		if IsSupportedType(m.String()) {
			return m.String()
		}
	}

	if detected.Is("application/zip") || detected.Is("application/octet-stream") {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			return MIMETypePDF
		case ".docx":
			return MIMETypeDOCX
		}
	}

	return baseMIME(detected.String())
}

// ResolveMIMEType trusts a supported declared type and sniffs everything else
func ResolveMIMEType(declared, name string, content []byte) string {
	if t := baseMIME(declared); IsSupportedType(t) {
		return t
	}
	return DetectMIMEType(name, content)
}

// baseMIME strips parameters such as charset
func baseMIME(value string) string {
	if i := strings.Index(value, ";"); i >= 0 {
		return strings.TrimSpace(value[:i])
	}
	return value
}
