package objectclient

import (
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "documents"

// NewObjectKey builds documents/<uuid>-<name> with the name reduced to a safe base name.
func NewObjectKey(fileName string) string {
	return keyPrefix + "/" + uuid.NewString() + "-" + sanitizeName(fileName)
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// urlLayout knows which URL shapes address objects in one bucket.
type urlLayout struct {
	bucket string
	// virtualHosts carry the bucket in the host name: <bucket>.s3.<region>.amazonaws.com
	virtualHosts []string
	// pathHosts carry the bucket as the first path segment: <host>/<bucket>/<key>
	pathHosts []string
}

func (l urlLayout) keyFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Host)
	p := strings.TrimPrefix(u.Path, "/")

	for _, h := range l.virtualHosts {
		if host == h && p != "" {
			return p, true
		}
	}
	for _, h := range l.pathHosts {
		if host != h {
			continue
		}
		key, ok := strings.CutPrefix(p, l.bucket+"/")
		if ok && key != "" {
			return key, true
		}
	}
	return "", false
}

func hostOf(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return strings.ToLower(strings.TrimSuffix(endpoint, "/"))
}
