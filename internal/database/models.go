package database

import "time"

// GeneratedImage is one archived image generation result. Hosted image
// URLs expire upstream, so rows are pruned after the configured
// retention.
type GeneratedImage struct {
	ID        string    `db:"id"         json:"id"`
	Kind      string    `db:"kind"       json:"kind"`
	Prompt    string    `db:"prompt"     json:"prompt"`
	URL       string    `db:"url"        json:"image"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
