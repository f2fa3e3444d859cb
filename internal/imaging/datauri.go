package imaging

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrMalformedDataURI is returned when a string is not a base64 data URI.
var ErrMalformedDataURI = errors.New("malformed data URI")

// EncodeDataURI renders data as data:<mime>;base64,<payload>.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI back into MIME type and bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrMalformedDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return "", nil, ErrMalformedDataURI
	}
	mimeType, params, _ := strings.Cut(header, ";")
	if mimeType == "" || !strings.Contains(params, "base64") {
		return "", nil, ErrMalformedDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrMalformedDataURI, err)
	}
	return mimeType, data, nil
}
