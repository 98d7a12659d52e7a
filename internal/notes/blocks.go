// Package notes implements the topic note format: an ordered sequence of
// text and image blocks serialized as a JSON array, plus the editor that
// manipulates it.
package notes

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlockType tells how a block's content is interpreted.
type BlockType string

const (
	TypeText  BlockType = "text"
	TypeImage BlockType = "image"
)

// Block is one element of a note. Text blocks hold plain text, image blocks
// hold a data URL.
type Block struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
}

// NewID returns a fresh block identifier.
func NewID() string {
	return uuid.NewString()
}

// Decode parses stored note content. A JSON array is read as blocks; any
// other non-empty value is a legacy plain-text note and becomes a single text
// block. Empty content opens as one empty text block.
func Decode(raw string) []Block {
	if raw == "" {
		return []Block{{ID: NewID(), Type: TypeText}}
	}
	var blocks []Block
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil || blocks == nil {
		return []Block{{ID: NewID(), Type: TypeText, Content: raw}}
	}
	for i := range blocks {
		if blocks[i].ID == "" {
			blocks[i].ID = NewID()
		}
		if blocks[i].Type == "" {
			blocks[i].Type = TypeText
		}
	}
	return blocks
}

// Encode serializes blocks for storage.
func Encode(blocks []Block) (string, error) {
	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("notes: encode: %w", err)
	}
	return string(data), nil
}

// Append returns a new sequence with b at the end.
func Append(blocks []Block, b Block) []Block {
	out := make([]Block, 0, len(blocks)+1)
	out = append(out, blocks...)
	return append(out, b)
}

// UpdateText returns a new sequence where the text block with the given id
// carries content. The second result is false when no such text block exists.
func UpdateText(blocks []Block, id, content string) ([]Block, bool) {
	out := make([]Block, len(blocks))
	found := false
	for i, b := range blocks {
		if b.ID == id && b.Type == TypeText {
			b.Content = content
			found = true
		}
		out[i] = b
	}
	return out, found
}

// Remove returns a new sequence without the block with the given id.
func Remove(blocks []Block, id string) ([]Block, bool) {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out, len(out) != len(blocks)
}

// DataURL encodes data as a base64 data URL. The media type comes from the
// file name extension, falling back to content sniffing.
func DataURL(name string, data []byte) string {
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes a base64 data URL into its media type and payload.
func ParseDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("notes: not a data URL")
	}
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("notes: malformed data URL")
	}
	if !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("notes: only base64 data URLs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("notes: decode data URL: %w", err)
	}
	return strings.TrimSuffix(header, ";base64"), data, nil
}
