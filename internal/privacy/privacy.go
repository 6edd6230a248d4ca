// Package privacy scrubs file paths and URLs from telemetry messages and
// generates the anonymous identifier reported with them.
package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`\b(?:https?|ftp|s3)://\S+`)

	// absolute unix or windows paths, starting a message or after a separator
	pathPattern = regexp.MustCompile(`(^|[\s"'(=])((?:/|[A-Za-z]:\\)[^\s"'):]+)`)
)

// ScrubMessage replaces URLs and absolute file paths in message with
// stable anonymous tokens. File extensions are kept.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	return pathPattern.ReplaceAllStringFunc(message, func(match string) string {
		m := pathPattern.FindStringSubmatch(match)
		return m[1] + AnonymizePath(m[2])
	})
}

// AnonymizePath hashes a file path, keeping only its extension
func AnonymizePath(path string) string {
	return "path-" + shortHash(path) + strings.ToLower(filepath.Ext(path))
}

// AnonymizeURL hashes a URL, keeping its scheme and the kind of host
func AnonymizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "url-" + shortHash(rawURL)
	}
	return fmt.Sprintf("%s://%s/url-%s", u.Scheme, hostKind(u.Hostname()), shortHash(rawURL))
}

func hostKind(host string) string {
	ip := net.ParseIP(host)
	switch {
	case host == "localhost" || (ip != nil && ip.IsLoopback()):
		return "localhost"
	case ip != nil && ip.IsPrivate():
		return "private-ip"
	case ip != nil:
		return "public-ip"
	default:
		return "host"
	}
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}

// GenerateSystemID creates a random identifier formatted as XXXX-XXXX-XXXX
func GenerateSystemID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	id := hex.EncodeToString(b)
	return strings.ToUpper(id[0:4] + "-" + id[4:8] + "-" + id[8:12]), nil
}

// IsValidSystemID checks the XXXX-XXXX-XXXX format
func IsValidSystemID(id string) bool {
	if len(id) != 14 || id[4] != '-' || id[9] != '-' {
		return false
	}
	for i, r := range id {
		if i == 4 || i == 9 {
			continue
		}
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
