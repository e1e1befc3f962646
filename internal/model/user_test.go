package model

import (
	"testing"

	"github.com/wardenhq/warden/internal/crypto"
)

func init() {
	SetPasswordCost(4)
}

func TestAccessLevelOrdering(t *testing.T) {
	if !(LevelUser < LevelSupport && LevelSupport < LevelModerator && LevelModerator < LevelAdministrator) {
		t.Fatal("access levels must form a strict total order")
	}
}

func TestAccessLevelString(t *testing.T) {
	cases := map[AccessLevel]string{
		LevelUser:          "user",
		LevelSupport:       "support",
		LevelModerator:     "moderator",
		LevelAdministrator: "administrator",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if got := AccessLevel(9).String(); got != "access_level(9)" {
		t.Errorf("got %q for out-of-range level", got)
	}
}

func TestParseAccessLevel(t *testing.T) {
	for _, name := range []string{"user", "support", "moderator", "administrator"} {
		level, err := ParseAccessLevel(name)
		if err != nil {
			t.Errorf("ParseAccessLevel(%q): %v", name, err)
		}
		if level.String() != name {
			t.Errorf("got %v, want %q", level, name)
		}
	}

	// Numeric tags parse too.
	level, err := ParseAccessLevel("3")
	if err != nil || level != LevelAdministrator {
		t.Errorf("got %v, %v", level, err)
	}

	if _, err := ParseAccessLevel("root"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetAndVerifyPassword(t *testing.T) {
	u := &User{Username: "alice"}
	if err := u.SetPassword(crypto.Plaintext("hunter2")); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if !u.VerifyPassword("hunter2") {
		t.Error("correct password rejected")
	}
	if u.VerifyPassword("wrong") {
		t.Error("wrong password accepted")
	}

	// Precomputed digests are stored as-is, never rehashed.
	digest := u.Password.Hash().Digest()
	other := &User{Username: "bob"}
	if err := other.SetPassword(crypto.PrecomputedDigest(digest)); err != nil {
		t.Fatalf("SetPassword digest: %v", err)
	}
	if other.Password.Hash().Digest() != digest {
		t.Error("precomputed digest was altered")
	}
	if !other.VerifyPassword("hunter2") {
		t.Error("digest-set password rejected original plaintext")
	}
}

func TestPasswordCodec(t *testing.T) {
	h, err := crypto.New("hunter2", 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := NewPassword(h)

	// Value emits the digest string only.
	v, err := p.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	digest, ok := v.(string)
	if !ok || digest != h.Digest() {
		t.Fatalf("got %v (%T), want digest string", v, v)
	}

	// Scan rehydrates a verifying hash.
	var scanned Password
	if err := scanned.Scan(digest); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !scanned.Valid() || !scanned.Hash().Verify("hunter2") {
		t.Error("scanned password does not verify")
	}

	// NULL maps to the invalid zero value both ways.
	var null Password
	if err := null.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if null.Valid() {
		t.Error("NULL scanned to a valid password")
	}
	if v, _ := null.Value(); v != nil {
		t.Errorf("got %v, want nil value for invalid password", v)
	}

	// Unsupported source types fail with the conversion error.
	var bad Password
	if err := bad.Scan(12345); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestPasswordStringHidesDigest(t *testing.T) {
	h, _ := crypto.New("hunter2", 4)
	p := NewPassword(h)
	if got := p.String(); got != "<Password>" {
		t.Errorf("got %q", got)
	}
}
