// Package store persists annotated examples: token sequences with optional
// gold bracket trees and external span annotations, keyed by example id.
package store

import "github.com/kittclouds/treeinduce/pkg/span"

// Example is one annotated sequence. Tree holds bracket text when a full
// gold bracketing is known; Spans holds flat external annotations (entity
// spans and the like) when only constituent boundaries are known. Either or
// both may be empty.
type Example struct {
	ID        string      `json:"example_id"`
	Tokens    []string    `json:"tokens"`
	Tree      string      `json:"tree,omitempty"`
	Spans     []span.Span `json:"spans,omitempty"`
	Length    int         `json:"length"`
	CreatedAt int64       `json:"createdAt"`
}
