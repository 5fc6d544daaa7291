package dandinotes

import (
	"fmt"
	"regexp"
	"strings"
)

const dandisetDirPrefix = "dandiset_"

var dandisetIDPattern = regexp.MustCompile(`^[0-9]{1,6}$`)

// NormalizeDandisetID reduces any accepted dandiset identifier form
// (000001, 27, dandiset_000001) to the bare 6-digit form. Idempotent.
func NormalizeDandisetID(id string) (string, error) {
	id = strings.TrimPrefix(id, dandisetDirPrefix)
	if !dandisetIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid dandiset id %q", id)
	}
	return strings.Repeat("0", 6-len(id)) + id, nil
}

// DandisetDirName returns the directory name for a dandiset id, in any
// accepted form.
func DandisetDirName(id string) (string, error) {
	bare, err := NormalizeDandisetID(id)
	if err != nil {
		return "", err
	}
	return dandisetDirPrefix + bare, nil
}

// DisplayID renders the public identifier (DANDI:000001) for an id in
// either bare or directory form.
func DisplayID(id string) string {
	bare, err := NormalizeDandisetID(id)
	if err != nil {
		return id
	}
	return "DANDI:" + bare
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	orcidPattern = regexp.MustCompile(`^https://orcid\.org/\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)
)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool { return emailPattern.MatchString(s) }

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool { return urlPattern.MatchString(s) }

// IsORCID reports whether s is an ORCID identifier URL.
func IsORCID(s string) bool { return orcidPattern.MatchString(s) }
