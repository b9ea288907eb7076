package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestNewPasswordService_CostRange(t *testing.T) {
	for _, cost := range []int{-1, 0, 3, 32} {
		if _, err := NewPasswordService(cost); err == nil {
			t.Errorf("NewPasswordService(%d) accepted an out-of-range cost", cost)
		}
	}
	if _, err := NewPasswordService(4); err != nil {
		t.Errorf("NewPasswordService(4) error = %v", err)
	}
}

// Each call salts independently, and the plaintext never shows up in the output.
func TestHash_SaltedAndOpaque(t *testing.T) {
	ps := NewPasswordServiceForTest()

	first, err := ps.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := ps.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password are identical")
	}
	for _, h := range []string{first, second} {
		if !strings.HasPrefix(h, "$2a$04$") {
			t.Errorf("hash %q is not a cost-4 bcrypt string", h)
		}
		if strings.Contains(h, "pw123") {
			t.Errorf("hash %q contains the plaintext", h)
		}
	}
}

func TestHash_72ByteLimit(t *testing.T) {
	ps := NewPasswordServiceForTest()

	if _, err := ps.Hash(strings.Repeat("x", maxPasswordBytes)); err != nil {
		t.Errorf("Hash(72 bytes) error = %v", err)
	}

	// 25 three-byte runes: only 25 characters but 75 bytes
	if _, err := ps.Hash(strings.Repeat("€", 25)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Hash(75 bytes) error = %v, want ErrPasswordTooLong", err)
	}
}

func TestVerify(t *testing.T) {
	ps := NewPasswordServiceForTest()

	hash, err := ps.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name      string
		hash      string
		plaintext string
		want      bool
	}{
		{"matching password", hash, "correct horse", true},
		{"wrong password", hash, "battery staple", false},
		{"case differs", hash, "Correct horse", false},
		{"empty password", hash, "", false},
		{"empty hash", "", "correct horse", false},
		{"garbage hash", "not-a-bcrypt-hash", "correct horse", false},
		{"truncated hash", hash[:20], "correct horse", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ps.Verify(tt.hash, tt.plaintext); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashVerify_NonASCII(t *testing.T) {
	ps := NewPasswordServiceForTest()

	for _, pw := range []string{"пароль", "密码密码", "  padded  ", "tab\tand\nnewline"} {
		hash, err := ps.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) error = %v", pw, err)
		}
		if !ps.Verify(hash, pw) {
			t.Errorf("Verify() rejected its own hash for %q", pw)
		}
	}
}

func TestVerifyDummy_NeverPanics(t *testing.T) {
	ps := NewPasswordServiceForTest()
	for _, pw := range []string{"", "anything", strings.Repeat("x", 100)} {
		ps.VerifyDummy(pw)
	}
}
