package domain

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// SelectedFile is the image the user picked, held in memory for the session.
type SelectedFile struct {
	Name     string
	MimeType string
	Data     []byte
	Digest   string // hex BLAKE2b-256 of Data
}

func NewSelectedFile(name, mimeType string, data []byte) SelectedFile {
	sum := blake2b.Sum256(data)
	return SelectedFile{
		Name:     name,
		MimeType: mimeType,
		Data:     data,
		Digest:   hex.EncodeToString(sum[:]),
	}
}

func (f SelectedFile) Size() int64 {
	return int64(len(f.Data))
}

// ShortDigest is a log-friendly prefix of the fingerprint.
func (f SelectedFile) ShortDigest() string {
	if len(f.Digest) < 12 {
		return f.Digest
	}
	return f.Digest[:12]
}
