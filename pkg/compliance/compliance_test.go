package compliance

import (
	"strings"
	"testing"

	"github.com/grantforge/grantforge/pkg/model"
)

func TestZeroLimitAlwaysCompliant(t *testing.T) {
	long := strings.Repeat("word ", 10000)
	if !Check(long, 0, model.UnitChars).Compliant {
		t.Fatal("limit 0 chars should always be compliant")
	}
	if !Check(long, 0, model.UnitWords).Compliant {
		t.Fatal("limit 0 words should always be compliant")
	}
}

func TestCharLimit(t *testing.T) {
	result := Check("abcde", 5, model.UnitChars)
	if !result.Compliant || result.Count != 5 {
		t.Fatalf("5 chars under limit 5 should comply, got %+v", result)
	}

	result = Check("abcdef", 5, model.UnitChars)
	if result.Compliant {
		t.Fatalf("6 chars over limit 5 should not comply, got %+v", result)
	}
}

func TestCharLimitCountsRunes(t *testing.T) {
	result := Check("héllo", 5, model.UnitChars)
	if result.Count != 5 {
		t.Fatalf("expected 5 runes, got %d", result.Count)
	}
	if !result.Compliant {
		t.Fatal("5 runes under limit 5 should comply")
	}
}

func TestWordLimit(t *testing.T) {
	result := Check("we will serve  two hundred students", 6, model.UnitWords)
	if !result.Compliant || result.Count != 6 {
		t.Fatalf("6 words under limit 6 should comply, got %+v", result)
	}

	result = Check("we will serve two hundred students yearly", 6, model.UnitWords)
	if result.Compliant {
		t.Fatalf("7 words over limit 6 should not comply, got %+v", result)
	}
}

func TestEmptyAnswer(t *testing.T) {
	result := Check("", 10, model.UnitWords)
	if !result.Compliant || result.Count != 0 {
		t.Fatalf("empty answer should comply with any limit, got %+v", result)
	}

	result = Check("   ", 1, model.UnitWords)
	if result.Count != 0 {
		t.Fatalf("whitespace-only answer should count zero words, got %d", result.Count)
	}
}
