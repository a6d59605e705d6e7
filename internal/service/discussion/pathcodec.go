package discussion

import (
	"fmt"
	"strings"

	"polly/internal/config"
	"polly/internal/domain"
)

// pathSeparator joins labels into dotted subtree paths like "a.b.f".
const pathSeparator = "."

// EncodeLabel maps a non-negative sibling index to its path label:
// encode(0)="a", encode(25)="z", encode(26)="ba". 'a' is the zero digit,
// so after "z" comes "ba", never "aa".
func EncodeLabel(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidIndex, n)
	}
	if n == 0 {
		return "a", nil
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('a' + n%26)
		n /= 26
	}
	return string(buf[i:]), nil
}

// DecodeLabel is the inverse of EncodeLabel. Any rune outside 'a'-'z' is
// rejected, as is a label long enough to overflow an int.
func DecodeLabel(label string) (int, error) {
	if label == "" || len(label) > config.MaxLabelLength {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidLabel, label)
	}
	n := 0
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c < 'a' || c > 'z' {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidLabel, label)
		}
		n = n*26 + int(c-'a')
	}
	return n, nil
}

// ChildPath returns the path of the child at index under parent.
func ChildPath(parent string, index int) (string, error) {
	label, err := EncodeLabel(index)
	if err != nil {
		return "", err
	}
	return parent + pathSeparator + label, nil
}

// SplitPath splits a subtree path into its grandparent prefix and final
// label. ok is false when the path has no separator, i.e. it denotes a
// root-level path that only the root append may create.
func SplitPath(subtreeID string) (prefix, label string, ok bool) {
	i := strings.LastIndex(subtreeID, pathSeparator)
	if i < 0 {
		return "", subtreeID, false
	}
	return subtreeID[:i], subtreeID[i+1:], true
}

// PathLabels validates a dotted subtree path and returns its labels. Every
// label must decode, and the depth is capped so attacker-chosen paths cannot
// drive unbounded trie walks or storage nesting.
func PathLabels(subtreeID string) ([]string, error) {
	if subtreeID == "" {
		return nil, fmt.Errorf("%w: empty subtree id", domain.ErrValidation)
	}
	labels := strings.Split(subtreeID, pathSeparator)
	if len(labels) > config.MaxPathDepth {
		return nil, fmt.Errorf("%w: subtree id deeper than %d levels", domain.ErrValidation, config.MaxPathDepth)
	}
	for _, label := range labels {
		if _, err := DecodeLabel(label); err != nil {
			return nil, err
		}
	}
	return labels, nil
}
