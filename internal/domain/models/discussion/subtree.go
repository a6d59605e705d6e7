package discussion

import (
	"time"

	"github.com/google/uuid"
)

// RootSubtreeID is the path of the single designated root node. Comments at
// this level are added through the privileged root append only.
const RootSubtreeID = "a"

// RootPseudo is the pseudonym recorded on root-level comments.
const RootPseudo = "root"

// Comment is one entry in a subtree's ordered comment sequence. Its position
// in the sequence is permanent and defines the child label one level deeper.
type Comment struct {
	// ChildID is the identity a future child subtree rooted one level deeper
	// must present to prove ancestry.
	ChildID uuid.UUID `json:"child_id"`
	Pseudo  string    `json:"pseudo"`
	// Repute is the author's aggregate reputation for the parent path at the
	// moment of writing. A snapshot; never recomputed.
	Repute int64     `json:"repute"`
	Title  string    `json:"title,omitempty"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// Subtree is one stored document: the ordered comments for a single path.
// A path with zero comments has no document at all - a legitimate leaf
// state, not an error.
type Subtree struct {
	// ID is assigned at creation and immutable. It doubles as the
	// anti-forgery token: it equals the ChildID of the comment in the
	// parent subtree that this subtree hangs off.
	ID uuid.UUID `json:"id"`
	// SubtreeID is the dotted path, e.g. "a.b.f". Root-level paths have a
	// single label.
	SubtreeID string    `json:"subtree_id"`
	Comments  []Comment `json:"comments"`
}
