package main

import (
	"fmt"
	"strings"
)

// reference is an image reference split into its addressable parts.
type reference struct {
	host       string
	repository string
	tag        string
}

func (r reference) String() string {
	return r.host + "/" + r.repository + ":" + r.tag
}

// parseReference decomposes ref into registry host, repository name and tag.
// The host is everything before the first "/", the tag everything after the
// first ":" that follows it, so a port in the host survives. Malformed
// references are rejected here, before any registry call sees them; a
// reference without a tag gets the engine default.
func parseReference(ref string) (reference, error) {
	host, rest, found := strings.Cut(ref, "/")
	if !found {
		return reference{}, fmt.Errorf("invalid image reference %q: missing registry host", ref)
	}
	if host == "" {
		return reference{}, fmt.Errorf("invalid image reference %q: empty registry host", ref)
	}

	repo, tag, found := strings.Cut(rest, ":")
	if !found {
		tag = "latest"
	}
	if repo == "" {
		return reference{}, fmt.Errorf("invalid image reference %q: empty repository name", ref)
	}
	if tag == "" {
		return reference{}, fmt.Errorf("invalid image reference %q: empty tag", ref)
	}

	return reference{host: host, repository: repo, tag: tag}, nil
}
