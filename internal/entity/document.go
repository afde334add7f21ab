package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Document is one uploaded quote PDF. Filename labels output only; it is not a key.
type Document struct {
	Filename   string `json:"filename"`
	SourcePath string `json:"source_path,omitempty"`
	Data       []byte `json:"-"`
}

// ContentHash returns the hex SHA-256 of the document bytes.
func (d Document) ContentHash() string {
	sum := sha256.Sum256(d.Data)
	return hex.EncodeToString(sum[:])
}
