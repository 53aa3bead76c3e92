package utils

import (
	"encoding/base64"
	"strings"
)

// DecodeDataURL extracts the binary payload of a base64 data-URL as
// captured by the browser ("data:image/png;base64,...."). Everything
// before the comma (the MIME declaration) is discarded; a bare base64
// string without a prefix is accepted too.
func DecodeDataURL(dataURL string) ([]byte, error) {
	payload := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		payload = dataURL[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// IsDataURL is a cheap shape check used by request validation; actual
// decoding still happens (and can still fail) in DecodeDataURL.
func IsDataURL(s string) bool {
	if !strings.HasPrefix(s, "data:") {
		return false
	}
	idx := strings.Index(s, ",")
	return idx > 0 && idx < len(s)-1
}
