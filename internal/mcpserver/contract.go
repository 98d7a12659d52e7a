package mcpserver

// NoteFormatContract describes how topic notes are stored, for LLM consumers
// reading or appending to them.
const NoteFormatContract = `# dsaflash Topic Note Format

Every topic has at most one note. Its content is a JSON array of blocks,
rendered top to bottom.

## Block

` + "```" + `json
{"id": "3f2b...", "type": "text", "content": "Plain text, newlines allowed."}
{"id": "9a1c...", "type": "image", "content": "data:image/png;base64,iVBORw0..."}
` + "```" + `

## Rules

1. ` + "`type`" + ` is ` + "`text`" + ` or ` + "`image`" + `. A missing type means ` + "`text`" + `.
2. ` + "`id`" + ` is unique within the note. Missing ids are assigned on load.
3. Image blocks hold a data URL with the image inline. Uploaded images
   (POST /api/upload) may instead be referenced by URL inside a text block.
4. Order is significant and preserved exactly.
5. A note that is not a JSON array is a legacy plain-text note and reads as a
   single text block holding the whole string.
6. An empty note reads as one empty text block.

## Example

` + "```" + `json
[
  {"id": "1", "type": "text", "content": "Sliding window: grow right, shrink left while invalid."},
  {"id": "2", "type": "image", "content": "data:image/png;base64,..."},
  {"id": "3", "type": "text", "content": "Complexity: O(n) time, O(k) space."}
]
` + "```" + `

Use the append_topic_note tool to add a text block without rewriting the note.
`
