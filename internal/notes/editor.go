package notes

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Store loads and saves serialized note content for a topic.
type Store interface {
	TopicNotes(ctx context.Context, topicID string) (string, error)
	SaveTopicNotes(ctx context.Context, topicID, content string) error
}

// ImageFile is an image chosen by the user.
type ImageFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Editor holds the in-memory block sequence of one topic note. Edits stay in
// memory until Save.
type Editor struct {
	store   Store
	topicID string

	mu     sync.Mutex
	blocks []Block
	dirty  bool
}

// NewEditor creates an editor for the note of topicID. Call Load before use.
func NewEditor(store Store, topicID string) *Editor {
	return &Editor{store: store, topicID: topicID, blocks: Decode("")}
}

// TopicID returns the topic this editor belongs to.
func (e *Editor) TopicID() string { return e.topicID }

// Load replaces the in-memory blocks with the stored note.
func (e *Editor) Load(ctx context.Context) error {
	raw, err := e.store.TopicNotes(ctx, e.topicID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.blocks = Decode(raw)
	e.dirty = false
	e.mu.Unlock()
	return nil
}

// Revert discards unsaved edits by reloading the stored note.
func (e *Editor) Revert(ctx context.Context) error {
	return e.Load(ctx)
}

// Blocks returns a copy of the current sequence.
func (e *Editor) Blocks() []Block {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Block(nil), e.blocks...)
}

// Dirty reports whether there are unsaved edits.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// AppendText adds a text block at the end.
func (e *Editor) AppendText(content string) Block {
	b := Block{ID: NewID(), Type: TypeText, Content: content}
	e.append(b)
	return b
}

// AppendImage reads an image, embeds it as a data URL and adds it at the end.
func (e *Editor) AppendImage(name string, r io.Reader) (Block, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Block{}, fmt.Errorf("notes: read image %s: %w", name, err)
	}
	b := Block{ID: NewID(), Type: TypeImage, Content: DataURL(name, data)}
	e.append(b)
	return b, nil
}

// AppendImages encodes files concurrently. Each block is appended as soon as
// its file finishes, so the resulting order is completion order, not the
// order of files. A failing file does not stop the others; the first error is
// returned after all have finished.
func (e *Editor) AppendImages(ctx context.Context, files []ImageFile) error {
	var g errgroup.Group
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("notes: open image %s: %w", f.Name, err)
			}
			defer rc.Close()
			_, err = e.AppendImage(f.Name, rc)
			return err
		})
	}
	return g.Wait()
}

// UpdateText replaces the content of a text block.
func (e *Editor) UpdateText(id, content string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	blocks, ok := UpdateText(e.blocks, id, content)
	if ok {
		e.blocks = blocks
		e.dirty = true
	}
	return ok
}

// Remove deletes a block.
func (e *Editor) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	blocks, ok := Remove(e.blocks, id)
	if ok {
		e.blocks = blocks
		e.dirty = true
	}
	return ok
}

// Save serializes the whole sequence and stores it.
func (e *Editor) Save(ctx context.Context) error {
	content, err := Encode(e.Blocks())
	if err != nil {
		return err
	}
	if err := e.store.SaveTopicNotes(ctx, e.topicID, content); err != nil {
		return err
	}
	e.mu.Lock()
	e.dirty = false
	e.mu.Unlock()
	return nil
}

func (e *Editor) append(b Block) {
	e.mu.Lock()
	e.blocks = Append(e.blocks, b)
	e.dirty = true
	e.mu.Unlock()
}
