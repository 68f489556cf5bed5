package domain

import "strings"

// CopyRequest is the pair of folders a mirror run operates on.
type CopyRequest struct {
	Source      string
	Destination string
}

func (r CopyRequest) Empty() bool {
	return strings.TrimSpace(r.Source) == "" || strings.TrimSpace(r.Destination) == ""
}
