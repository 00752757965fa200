package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/ports"
)

// BrowserClientContractTest is a reusable test suite that verifies if an adapter complies with ports.BrowserClient.
// back must simulate a back navigation of the underlying browser.
func BrowserClientContractTest(t *testing.T, browser ports.BrowserClient, back func()) {
	t.Helper()
	ctx := context.Background()

	// 1. Pushed locations become current
	t.Run("PushState_UpdatesURL", func(t *testing.T) {
		if err := browser.PushState(ctx, domain.UrlTarget{Path: "/a"}); err != nil {
			t.Fatalf("unexpected error pushing state: %v", err)
		}
		if err := browser.PushState(ctx, domain.UrlTarget{Path: "/b", SectionID: "s"}); err != nil {
			t.Fatalf("unexpected error pushing state: %v", err)
		}
		got := browser.ParseURL()
		if got.Path != "/b" || got.SectionID != "s" {
			t.Errorf("url mismatch. got %+v, want /b.s", got)
		}
	})

	// 2. Back emits the previous location
	t.Run("Back_EmitsPopState", func(t *testing.T) {
		pops, cancel := browser.PopStates()
		defer cancel()

		back()

		select {
		case got := <-pops:
			if got.Path != "/a" {
				t.Errorf("popstate mismatch. got %q, want /a", got.Path)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for popstate")
		}

		if got := browser.ParseURL(); got.Path != "/a" {
			t.Errorf("url mismatch after back. got %q, want /a", got.Path)
		}
	})
}
