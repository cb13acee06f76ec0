package filesystem

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ArchiveLocation is a parsed --remote value.
type ArchiveLocation struct {
	Host string
	Port int
	User string
	// Root is the base directory on the host; "." is the user's home.
	Root string
}

// ParseArchiveURL parses an archive location in one of two forms:
//   - sftp://user@host:port/path  (path relative to home; "//path" is absolute)
//   - user@host[:port]            (home directory)
//
// Port defaults to 22.
func ParseArchiveURL(raw string) (*ArchiveLocation, error) {
	if !strings.Contains(raw, "://") {
		raw = "sftp://" + raw
	}

	u, err := url.Parse(raw) //nolint:varnamelen // u is idiomatic for URL
	if err != nil {
		return nil, fmt.Errorf("invalid archive URL: %w", err)
	}

	if u.Scheme != "sftp" {
		return nil, fmt.Errorf("expected sftp:// scheme, got %s://", u.Scheme) //nolint:err113 // URL validation with actual scheme
	}

	if u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("archive URL must include username (sftp://user@host/path)") //nolint:err113,perfsprint // format guidance
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("archive URL must include host") //nolint:err113,perfsprint // URL validation error
	}

	port := defaultSSHPort
	if portStr := u.Port(); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port number: %w", err)
		}
		port = p
	}

	root := u.Path
	switch {
	case root == "" || root == "/":
		root = "."
	case strings.HasPrefix(root, "//"):
		root = root[1:]
	default:
		root = strings.TrimPrefix(root, "/")
	}

	return &ArchiveLocation{
		Host: host,
		Port: port,
		User: u.User.Username(),
		Root: root,
	}, nil
}
