package datashare

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// UploadPrefix is the key prefix of every uploaded object.
const UploadPrefix = "uploads/"

var forbiddenExtensions = map[string]struct{}{
	"exe": {},
	"bat": {},
	"sh":  {},
}

// IsForbiddenExtension reports whether the text after the last '.' in name
// is a denied executable extension. A name without a '.' is its own
// extension, so a file called "sh" is denied too. The comparison ignores
// case, so "VIRUS.EXE" is rejected like "virus.exe".
func IsForbiddenExtension(name string) bool {
	ext := name[strings.LastIndexByte(name, '.')+1:]
	_, denied := forbiddenExtensions[strings.ToLower(ext)]
	return denied
}

// IsValidFilename validates a client supplied filename. It checks that the name:
//   - is not empty, ".", or ".."
//   - is at most 255 bytes
//   - has no path separators (/ or \)
//   - is valid UTF-8 without control characters
func IsValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > 255 {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}

	return true
}

// StorageKey builds the object key uploads/<id>-<filename>.
func StorageKey(id uuid.UUID, filename string) string {
	return UploadPrefix + id.String() + "-" + filename
}

// IsValidObjectKey validates that a key can be mapped onto a local path.
// It checks that the key:
//   - is not empty, ".", or "/"
//   - is relative and does not end with "/"
//   - has no "..", "." or empty segments
//   - does not contain a backslash
//   - is valid UTF-8 without null bytes, control characters or DEL
//
// Any other character a filename may carry is allowed; signed URLs escape
// the key path.
func IsValidObjectKey(k string) bool {
	if k == "" || k == "/" || k == "." {
		return false
	}

	if k[0] == '/' || strings.HasSuffix(k, "/") {
		return false
	}

	if strings.ContainsRune(k, '\\') {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	if path.Clean(k) != k {
		return false
	}

	for seg := range strings.SplitSeq(k, "/") {
		if seg == ".." {
			return false
		}
	}

	for _, r := range k {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}
