package signet

import (
	"context"
	"strings"
	"testing"
	"time"
)

// FuzzPeek exercises token inspection with arbitrary strings.
// Goal: no panics; invalid inputs should return errors cleanly.
func FuzzPeek(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("a.b.c")
	f.Add("a.b.c.d.e")
	f.Add("..")
	f.Add("!!!not-base64!!!.x.y")
	f.Add("eyJhbGciOiJIUzI1NiJ9.bnVsbA.sig")

	cfg := DefaultConfig()
	cfg.Keys.Signing = SecretKey(testSecret)
	if engine, err := NewEngine(cfg); err == nil {
		if token, err := engine.Sign(Claims{"sub": "u1"}); err == nil {
			f.Add(token)
		}
		engine.Close()
	}

	f.Fuzz(func(t *testing.T, input string) {
		info, err := Peek(input)
		if err != nil {
			if info != nil {
				t.Fatal("non-nil info alongside an error")
			}
			return
		}
		if info == nil {
			t.Fatal("nil info without an error")
		}

		wantEncrypted := strings.Count(input, ".") == 4
		if info.Encrypted != wantEncrypted {
			t.Fatalf("Encrypted=%v for %d dots", info.Encrypted, strings.Count(input, "."))
		}
		if info.Encrypted && info.Claims != nil {
			t.Fatal("encrypted token exposed claims")
		}

		// Accessors must be usable on whatever Peek accepted.
		_ = info.Algorithm()
		_ = info.KeyID()
	})
}

// FuzzVerifyOpaque feeds arbitrary strings through Verify. No input may
// panic, and every rejection must read as the same bare sentinel.
func FuzzVerifyOpaque(f *testing.F) {
	cfg := DefaultConfig()
	cfg.Keys.Signing = SecretKey(testSecret)
	engine, err := NewEngine(cfg)
	if err != nil {
		f.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	f.Add("")
	f.Add("a.b.c")
	f.Add("a.b.c.d.e")
	if token, err := engine.Sign(Claims{"sub": "u1"}); err == nil {
		f.Add(token)
		f.Add(token + "x")
	}
	if expired, err := engine.Sign(Claims{"sub": "u1"}, WithExpiry(At(time.Now().Add(-time.Hour)))); err == nil {
		f.Add(expired)
	}

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := engine.Verify(context.Background(), input)
		if err != nil {
			if err != ErrVerification {
				t.Fatalf("rejection leaked detail: %v", err)
			}
			return
		}
		if claims == nil {
			t.Fatal("nil claims without an error")
		}
	})
}
