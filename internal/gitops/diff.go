package gitops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

const (
	// maxDiffLen bounds the diff handed to the message generator. The
	// prompt rides in a process argument list, so it has to stay small.
	maxDiffLen = 5000

	truncationMarker = "\n\n[... truncated ...]"
)

// StagedDiff renders the unified diff between the HEAD tree and the index.
// Only staged content is considered; unstaged working-tree edits are
// invisible here. Binary files are reported, not textually diffed. The
// result is whitespace-trimmed and hard-truncated at maxDiffLen characters.
func (r *Repository) StagedDiff() (string, error) {
	headTree, err := r.headTree()
	if err != nil {
		return "", fmt.Errorf("%w: reading HEAD tree: %v", ErrDiff, err)
	}

	indexTreeHash, err := r.writeIndexTree()
	if err != nil {
		return "", fmt.Errorf("%w: materializing index tree: %v", ErrDiff, err)
	}
	indexTree, err := object.GetTree(r.repo.Storer, indexTreeHash)
	if err != nil {
		return "", fmt.Errorf("%w: reading index tree: %v", ErrDiff, err)
	}

	changes, err := object.DiffTree(headTree, indexTree)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiff, err)
	}
	patch, err := changes.Patch()
	if err != nil {
		return "", fmt.Errorf("%w: rendering patch: %v", ErrDiff, err)
	}

	return TruncateDiff(patch.String()), nil
}

// TruncateDiff trims surrounding whitespace and caps the diff at maxDiffLen
// characters, appending a literal truncation marker when it was cut.
func TruncateDiff(diff string) string {
	diff = strings.TrimSpace(diff)
	if len(diff) > maxDiffLen {
		return diff[:maxDiffLen] + truncationMarker
	}
	return diff
}

// writeIndexTree writes the current index as tree objects into the object
// store and returns the root tree hash. This is the same materialization a
// commit performs; diffing against it is how "HEAD vs index" is expressed
// with go-git, which only diffs trees.
func (r *Repository) writeIndexTree() (plumbing.Hash, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	root := newTreeBuilder()
	for _, entry := range idx.Entries {
		// Conflict stages and intent-to-add entries have no committed
		// content to diff.
		if entry.Stage != index.Merged || entry.IntentToAdd {
			continue
		}
		root.insert(strings.Split(entry.Name, "/"), object.TreeEntry{
			Name: "",
			Mode: entry.Mode,
			Hash: entry.Hash,
		})
	}

	return root.write(r.repo.Storer)
}

// treeBuilder assembles nested tree objects from flat index paths.
type treeBuilder struct {
	subdirs map[string]*treeBuilder
	blobs   map[string]object.TreeEntry
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{
		subdirs: make(map[string]*treeBuilder),
		blobs:   make(map[string]object.TreeEntry),
	}
}

func (b *treeBuilder) insert(parts []string, entry object.TreeEntry) {
	if len(parts) == 1 {
		entry.Name = parts[0]
		b.blobs[parts[0]] = entry
		return
	}
	child, ok := b.subdirs[parts[0]]
	if !ok {
		child = newTreeBuilder()
		b.subdirs[parts[0]] = child
	}
	child.insert(parts[1:], entry)
}

func (b *treeBuilder) write(s storer.EncodedObjectStorer) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(b.blobs)+len(b.subdirs))
	for name, child := range b.subdirs {
		hash, err := child.write(s)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	for _, entry := range b.blobs {
		entries = append(entries, entry)
	}

	// Git orders tree entries bytewise, with directory names compared as
	// if they carried a trailing slash.
	sort.Slice(entries, func(i, j int) bool {
		return treeEntryKey(entries[i]) < treeEntryKey(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := s.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(obj)
}

func treeEntryKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}
