package domain

import "time"

// Project is the tenant boundary. Every embedding row belongs to exactly one
// project, and every query against embeddings is scoped to one.
type Project struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RepoRef identifies a remote repository on the hosting provider.
type RepoRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}
