package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameLength = 200

var (
	// Anything that survives ASCII folding but is not safe in a stored name
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

	// Names Windows reserves regardless of extension
	windowsDeviceNames = map[string]struct{}{
		"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
		"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
		"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
		"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
		"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
	}
)

// SecureFilename reduces an uploaded filename to a flat ASCII name that is
// safe to join onto a storage directory.
// Example: "../../etc/My Résumé.pdf" -> "etc_My_Resume.pdf"
func SecureFilename(filename string) string {
	// Decompose accents so the base letters survive ASCII folding
	filename = norm.NFKD.String(filename)
	filename = strings.Map(func(r rune) rune {
		if r > 0x7f {
			return -1
		}
		return r
	}, filename)

	filename = strings.NewReplacer("/", " ", "\\", " ").Replace(filename)
	filename = strings.Join(strings.Fields(filename), "_")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	filename = strings.Trim(filename, "._")

	if filename != "" {
		stem := strings.ToUpper(strings.SplitN(filename, ".", 2)[0])
		if _, reserved := windowsDeviceNames[stem]; reserved {
			filename = "_" + filename
		}
	}

	if len(filename) > maxFilenameLength {
		ext := filepath.Ext(filename)
		if len(ext) >= maxFilenameLength {
			ext = ""
		}
		filename = filename[:maxFilenameLength-len(ext)] + ext
	}

	if filename == "" {
		filename = "file"
	}

	return filename
}

// HasExtension reports whether filename ends in one of the allowed
// extensions, compared case-insensitively and without the leading dot.
func HasExtension(filename string, allowed []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
