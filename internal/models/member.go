package models

import "time"

// Member is profile display data referenced by id. Identity issuance and
// profile management live outside this service; rows here are read-only.
type Member struct {
	ID         int64     `db:"id" json:"id"`
	Nickname   string    `db:"nickname" json:"nickname"`
	IslandName string    `db:"island_name" json:"island_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
