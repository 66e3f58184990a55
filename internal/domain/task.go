package domain

import "net/url"

// DownloadTask is one unit of work: fetch SourceURL into DestPath.
// Identity is SourceURL; tasks are immutable once created.
type DownloadTask struct {
	SourceURL string
	DestPath  string
}

// Host returns the remote host the task targets, or "" if the URL does
// not parse. Per-host connection caps are keyed on this value.
func (t DownloadTask) Host() string {
	u, err := url.Parse(t.SourceURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
