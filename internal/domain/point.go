package domain

import (
	"errors"
	"fmt"
)

// Payload field names as stored in the vector index.
const (
	PayloadAgentID    = "agentId"
	PayloadDocumentID = "documentId"
	PayloadChunk      = "chunk"
)

// PointPayload is the metadata stored alongside every vector.
type PointPayload struct {
	AgentID    string `json:"agentId"`
	DocumentID string `json:"documentId"`
	Chunk      string `json:"chunk"`
}

// Point is one embedded chunk, the unit of vector index storage.
type Point struct {
	ID      string
	Vector  []float32
	Payload PointPayload
}

// Sentinels returned by vector backends for idempotent schema operations.
var (
	ErrCollectionExists   = errors.New("collection already exists")
	ErrPayloadIndexExists = errors.New("payload index already exists")
)

// DimensionMismatchError reports an embedding whose length differs from the collection's.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("Vector dimension mismatch: provider output %d, index expects %d.", e.Got, e.Want)
}
