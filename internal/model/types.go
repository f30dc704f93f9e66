// Package model defines the persistence-facing record types shared by the
// store, the artifacts writer, and the client API.
package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one finished (or collapsed) simulation run.
type RunRecord struct {
	VersionedRecord
	ID          string    `json:"id"`
	Seed        uint32    `json:"seed"`
	InitialSize int       `json:"initial_size"`
	Generations int       `json:"generations"`
	FinalLength int       `json:"final_length"`
	UniqueCount int       `json:"unique_count"`
	Diversity   float64   `json:"diversity"`
	SNPCount    int       `json:"snp_count"`
	DupCount    int       `json:"dup_count"`
	DelCount    int       `json:"del_count"`
	Collapsed   bool      `json:"collapsed"`
	CreatedAt   time.Time `json:"created_at"`
}

// GenerationRecord is one point of a run's per-generation trace.
type GenerationRecord struct {
	Generation int     `json:"generation"`
	Length     int     `json:"length"`
	Unique     int     `json:"unique"`
	Diversity  float64 `json:"diversity"`
	SNPCount   int     `json:"snp_count"`
	DupCount   int     `json:"dup_count"`
	DelCount   int     `json:"del_count"`
	Collapsed  bool    `json:"collapsed"`
}

// ArraySnapshot is the full repeat array at the end of a run, one sequence
// string per unit, in tandem order.
type ArraySnapshot struct {
	VersionedRecord
	RunID      string   `json:"run_id"`
	Generation int      `json:"generation"`
	Units      []string `json:"units"`
}
