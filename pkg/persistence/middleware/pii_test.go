package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/flowrun/pkg/adapters/memory"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/persistence/middleware"
)

func sampleRun(id string) *domain.RunResult {
	state := domain.MustState(map[string]any{
		"username":      "jdoe",
		"user_password": "secret123",
		"details": map[string]any{
			"address":    "123 St",
			"ssn_number": "999-99-9999",
		},
		"contacts":  []any{map[string]any{"ssn": "111-11-1111", "name": "ann"}},
		"safe_data": "public",
	})
	return &domain.RunResult{
		RunID:        id,
		GraphID:      "g",
		FinalState:   state,
		Log:          []domain.LogEntry{{Node: "a", State: state.Clone()}},
		Steps:        1,
		TerminatedBy: domain.TerminatedNatural,
	}
}

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewRunStore()
	// Mask keys containing "password" or "ssn"
	secure := middleware.NewPIIMiddleware([]string{"password", "ssn"})(underlying)

	ctx := context.Background()
	run := sampleRun("pii-run")

	if err := secure.Save(ctx, run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The caller's result is not modified
	if v, _ := run.FinalState.String("user_password"); v != "secret123" {
		t.Error("Middleware modified original result in memory!")
	}

	stored, err := underlying.Get(ctx, "pii-run")
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}

	for _, s := range []domain.State{stored.FinalState, stored.Log[0].State} {
		if v, _ := s.String("username"); v != "jdoe" {
			t.Error("Username shouldn't be masked")
		}
		if v, _ := s.String("user_password"); v != middleware.Mask {
			t.Errorf("Password should be masked, got %q", v)
		}
		if v, _ := s.String("safe_data"); v != "public" {
			t.Error("Safe data shouldn't be masked")
		}

		details, _ := s["details"].AsMap()
		if v, _ := details["ssn_number"].AsString(); v != middleware.Mask {
			t.Errorf("Nested SSN should be masked, got %q", v)
		}
		if v, _ := details["address"].AsString(); v != "123 St" {
			t.Error("Nested address shouldn't be masked")
		}

		contacts, _ := s["contacts"].AsList()
		contact, _ := contacts[0].AsMap()
		if v, _ := contact["ssn"].AsString(); v != middleware.Mask {
			t.Errorf("SSN inside a list should be masked, got %q", v)
		}
		if v, _ := contact["name"].AsString(); v != "ann" {
			t.Error("Name inside a list shouldn't be masked")
		}
	}

	// Reads go through unchanged
	viaMiddleware, err := secure.Get(ctx, "pii-run")
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if !viaMiddleware.FinalState.Equal(stored.FinalState) {
		t.Error("Get should return the stored (masked) result")
	}
}

func TestPIIMiddleware_KeepsStoreSemantics(t *testing.T) {
	underlying := memory.NewRunStore()
	secure := middleware.NewPIIMiddleware([]string{"password"})(underlying)
	ctx := context.Background()

	if err := secure.Save(ctx, sampleRun("r1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := secure.Save(ctx, sampleRun("r1")); err == nil {
		t.Error("Expected duplicate run id to fail")
	}

	ids, err := secure.List(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "r1" {
		t.Errorf("Unexpected list result: %v, %v", ids, err)
	}
}

func TestCompilePatterns(t *testing.T) {
	if err := middleware.CompilePatterns([]string{"pass.*", "ssn"}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := middleware.CompilePatterns([]string{"("}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestChain_Order(t *testing.T) {
	underlying := memory.NewRunStore()
	key := generateKey(t)
	// PII runs first, then encryption seals the masked result
	store := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{"password"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	ctx := context.Background()

	if err := store.Save(ctx, sampleRun("chained")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := underlying.Get(ctx, "chained")
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}
	if _, ok := raw.FinalState["username"]; ok {
		t.Error("Expected plaintext to be hidden by encryption")
	}

	got, err := store.Get(ctx, "chained")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v, _ := got.FinalState.String("user_password"); v != middleware.Mask {
		t.Errorf("Expected decrypted result to be masked, got %q", v)
	}
}
