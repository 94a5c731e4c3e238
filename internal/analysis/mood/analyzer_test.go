package mood

import "testing"

func TestClassifyStressedWinsOverHappy(t *testing.T) {
	decision := Classify("stressed about the deadline but optimistic", "medium")
	if decision.Label != Stressed {
		t.Fatalf("expected stressed label, got %s", decision.Label)
	}
}

func TestClassifyUsesEnergyHint(t *testing.T) {
	decision := Classify("meh", "low")
	if decision.Label != Tired {
		t.Fatalf("expected tired label from energy hint, got %s", decision.Label)
	}
}

func TestClassifyNegation(t *testing.T) {
	decision := Classify("not good today", "")
	if decision.Label != Sad {
		t.Fatalf("expected sad label for negated mood, got %s", decision.Label)
	}
}

func TestClassifyNeutral(t *testing.T) {
	decision := Classify("", "")
	if decision.Label != Neutral || decision.Score != 0 {
		t.Fatalf("expected neutral decision, got %+v", decision)
	}
}
