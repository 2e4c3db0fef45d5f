package model

import (
	"time"
)

// ShareLink is a public download token for a single indexed file. It exists
// only in relation to its FileRecord: when the record goes, the link goes.
type ShareLink struct {
	ID            string     `json:"id"`
	Token         string     `json:"token"`
	OwnerID       string     `json:"ownerId"`
	FileID        string     `json:"fileId"`
	FilePath      string     `json:"filePath,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	DownloadCount int64      `json:"downloadCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Expired reports whether the link has an expiry in the past.
func (s *ShareLink) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
