package service

import (
	"context"
	"errors"
	"testing"
)

func TestGenerateMapCode_ShapeAndSpread(t *testing.T) {
	t.Parallel()

	// 36^8 possible codes; 10k draws colliding would point at a broken
	// random source, not bad luck.
	const draws = 10000
	seen := make(map[string]bool, draws)
	for i := 0; i < draws; i++ {
		code := GenerateMapCode()
		if !MapCodeRegex.MatchString(code) {
			t.Fatalf("GenerateMapCode() = %q, does not match %s", code, MapCodeRegex)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q within %d draws", code, draws)
		}
		seen[code] = true
	}
}

// collidingChecker reports the first n codes as taken.
type collidingChecker struct {
	collisions int
	calls      int
	err        error
}

func (c *collidingChecker) MapCodeExists(_ context.Context, _ string) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.calls <= c.collisions, nil
}

func TestGenerateUniqueMapCode_RetriesOnCollision(t *testing.T) {
	t.Parallel()

	checker := &collidingChecker{collisions: 2}
	code, err := generateUniqueMapCode(context.Background(), checker)
	if err != nil {
		t.Fatalf("generateUniqueMapCode() error = %v", err)
	}
	if !MapCodeRegex.MatchString(code) {
		t.Errorf("code = %q, malformed", code)
	}
	if checker.calls != 3 {
		t.Errorf("checker calls = %d, want 3", checker.calls)
	}
}

func TestGenerateUniqueMapCode_GivesUpAfterRetryBudget(t *testing.T) {
	t.Parallel()

	checker := &collidingChecker{collisions: 1000}
	_, err := generateUniqueMapCode(context.Background(), checker)
	if !errors.Is(err, ErrCodeGeneration) {
		t.Fatalf("error = %v, want ErrCodeGeneration", err)
	}
	if checker.calls != maxCodeRetries {
		t.Errorf("checker calls = %d, want %d", checker.calls, maxCodeRetries)
	}
}

func TestGenerateUniqueMapCode_PropagatesCheckerError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("store down")
	checker := &collidingChecker{err: wantErr}
	_, err := generateUniqueMapCode(context.Background(), checker)
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
}
