package config

const (
	// MaxPseudonymLength is the maximum length for a user pseudonym.
	MaxPseudonymLength = 64

	// MaxTitleLength is the maximum length for a comment title.
	MaxTitleLength = 255

	// MaxCommentLength is the maximum length for comment text.
	MaxCommentLength = 16 * 1024

	// MaxPathDepth is the maximum number of labels in a subtree path. The
	// reputation trie mirrors the path hierarchy, so this also bounds every
	// trie walk against adversarial path depth.
	MaxPathDepth = 64

	// MaxLabelLength is the maximum length of a single path label. A label
	// of 7 letters already addresses over 26^7 siblings; anything longer is
	// a fabricated path.
	MaxLabelLength = 7

	// MaxTreeViewDepth is the deepest nested view GetTree will assemble in
	// one request, regardless of what the caller asks for.
	MaxTreeViewDepth = 16
)
