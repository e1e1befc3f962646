package crypto

// PasswordInput is a tagged value accepted by Convert. Exactly one of the
// constructors below produces a valid input; the zero value is invalid and
// fails conversion with ErrTypeConversion.
type PasswordInput struct {
	kind inputKind
	text string
	hash PasswordHash
}

type inputKind int

const (
	inputInvalid inputKind = iota
	inputPlaintext
	inputDigest
	inputHash
)

// Plaintext marks s as a raw password that must be hashed during conversion.
func Plaintext(s string) PasswordInput {
	return PasswordInput{kind: inputPlaintext, text: s}
}

// PrecomputedDigest marks s as an already-derived digest that must be
// wrapped without re-hashing.
func PrecomputedDigest(s string) PasswordInput {
	return PasswordInput{kind: inputDigest, text: s}
}

// FromHash passes an existing PasswordHash through conversion unchanged.
func FromHash(h PasswordHash) PasswordInput {
	return PasswordInput{kind: inputHash, hash: h}
}

// Convert resolves a PasswordInput to a PasswordHash. Plaintext is hashed at
// the given cost, digests are wrapped as-is, and existing hashes are returned
// untouched so that storing a hash twice never re-derives it.
func Convert(in PasswordInput, rounds int) (PasswordHash, error) {
	switch in.kind {
	case inputPlaintext:
		return New(in.text, rounds)
	case inputDigest:
		return FromDigest(in.text, rounds), nil
	case inputHash:
		return in.hash, nil
	default:
		return PasswordHash{}, ErrTypeConversion
	}
}
