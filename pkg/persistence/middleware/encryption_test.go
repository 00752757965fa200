package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/sitenav/pkg/adapters/memory"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/persistence/middleware"
	"github.com/aretw0/sitenav/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretHistory(path string) domain.History {
	return domain.History{
		Entries: []domain.UrlTarget{{Path: "/"}, {Path: path, SectionID: "setup"}},
		Index:   1,
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunHistoryStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "test-session"

	if err := secureStore.Save(ctx, sessionID, secretHistory("/internal/payroll")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The backing store only sees the envelope.
	stored, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored.Entries) != 1 || stored.Entries[0].Path != "/" {
		t.Fatalf("Expected a single envelope entry, got: %+v", stored.Entries)
	}
	blob := stored.Entries[0].Parameters[middleware.EnvelopeKey]
	if blob == "" {
		t.Fatal("Expected __encrypted__ parameter in envelope")
	}
	if strings.Contains(blob, "payroll") {
		t.Fatal("Expected location to be hidden")
	}

	loaded, err := secureStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Index != 1 || loaded.Entries[1].Path != "/internal/payroll" || loaded.Entries[1].SectionID != "setup" {
		t.Errorf("Unexpected history after decryption: %+v", loaded)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	sessionID := "rotation-session"

	if err := secureStoreOld.Save(ctx, sessionID, secretHistory("/old")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Entries[1].Path != "/old" {
		t.Errorf("Decryption with fallback key failed")
	}

	if err := secureStoreNew.Save(ctx, sessionID, secretHistory("/new")); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, sessionID); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainHistory(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "plain", secretHistory("/clear")); err != nil {
		t.Fatal(err)
	}

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err == nil {
		t.Error("Expected plain history to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestEncryptionMiddleware_BoundToSession(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	ctx := context.Background()

	if err := secureStore.Save(ctx, "alice", secretHistory("/alice")); err != nil {
		t.Fatal(err)
	}

	// Copy alice's envelope into bob's session behind the middleware's back.
	envelope, err := underlyingStore.Load(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := underlyingStore.Save(ctx, "bob", envelope); err != nil {
		t.Fatal(err)
	}

	if _, err := secureStore.Load(ctx, "bob"); err == nil {
		t.Error("Expected an envelope copied to another session to be rejected")
	}
	if _, err := secureStore.Load(ctx, "alice"); err != nil {
		t.Errorf("Load of the original session failed: %v", err)
	}
}
