package extract

import "testing"

func TestSimilarity_Symmetric(t *testing.T) {
	a := "Apple iPhone 13 Case"
	b := "iPhone 13 Protective Case Cover"

	if Similarity(a, b) != Similarity(b, a) {
		t.Errorf("Similarity not symmetric: %v vs %v", Similarity(a, b), Similarity(b, a))
	}
}

func TestSimilarity_RelatedTitles(t *testing.T) {
	score := Similarity("Apple iPhone 13 Case", "iPhone 13 Protective Case Cover")
	if score <= 0 || score >= 1 {
		t.Fatalf("related titles score = %v, want in (0,1)", score)
	}

	unrelated := Similarity("Garden Hose Reel", "iPhone 13 Protective Case Cover")
	if score <= unrelated {
		t.Errorf("related score %v not greater than unrelated score %v", score, unrelated)
	}
}

func TestSimilarity_IdenticalTitles(t *testing.T) {
	if got := Similarity("Dewalt 20V Max Cordless Drill", "Dewalt 20V Max Cordless Drill"); got != 1 {
		t.Errorf("identical titles score = %v, want 1", got)
	}
}

func TestSimilarity_EmptyTitles(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"both empty", "", ""},
		{"first empty", "", "iPhone 13"},
		{"second empty", "iPhone 13", ""},
		{"only short words", "a an to", "iPhone 13 Case"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != 0 {
				t.Errorf("Similarity(%q, %q) = %v, want 0", tt.a, tt.b, got)
			}
		})
	}
}

func TestSimilarity_ContainmentTolerance(t *testing.T) {
	// Pluralization survives via substring containment.
	if got := Similarity("wireless headphones", "wireless headphone stand"); got == 0 {
		t.Error("containment should match headphone/headphones")
	}
}

func TestSimilarity_PunctuationStripped(t *testing.T) {
	a := Similarity("Ninja 7-Speed Blender", "Ninja 7 Speed Blender")
	b := Similarity("Ninja Speed Blender", "Ninja Speed Blender")
	if a != b {
		t.Errorf("punctuation should not affect scoring: %v vs %v", a, b)
	}
}
