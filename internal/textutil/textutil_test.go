package textutil

import (
	"math"
	"reflect"
	"testing"
)

func TestNormalizeTextComposesAndTrims(t *testing.T) {
	decomposed := "  Café aan de Schelde\r\nregel twee\r "
	got := NormalizeText(decomposed)
	want := "Café aan de Schelde\nregel twee"
	if got != want {
		t.Fatalf("NormalizeText = %q, want %q", got, want)
	}
}

func TestNormalizeFieldCollapsesWhitespace(t *testing.T) {
	if got := NormalizeField(" Groen \t  fractie\n"); got != "Groen fractie" {
		t.Fatalf("NormalizeField = %q", got)
	}
	if got := NormalizeField(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestTokenizeFoldsCaseAndDropsStopWords(t *testing.T) {
	got := Tokenize("Wat is de STAND van de renovatie van het Zwembad Wezenberg?")
	want := []string{"stand", "renovatie", "zwembad", "wezenberg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeKeepsAccentedLetters(t *testing.T) {
	got := Tokenize("Café-uitbating op het Eilandje")
	want := []string{"café", "uitbating", "eilandje"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
	}{
		{"both nil", nil, nil},
		{"a nil", nil, NewFingerprint("fietspad leien")},
		{"b nil", NewFingerprint("fietspad leien"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("CosineSimilarity() = %v, want 0", got)
			}
		})
	}
}

func TestCosineSimilarityRange(t *testing.T) {
	same := CosineSimilarity(NewFingerprint("fietspad langs de leien"), NewFingerprint("Fietspad langs de Leien"))
	if math.Abs(same-1) > 1e-9 {
		t.Fatalf("identical text similarity = %v, want 1", same)
	}
	partial := CosineSimilarity(NewFingerprint("fietspad langs de leien"), NewFingerprint("parkeren langs de leien"))
	if partial <= 0 || partial >= 1 {
		t.Fatalf("partial similarity = %v, want between 0 and 1", partial)
	}
	disjoint := CosineSimilarity(NewFingerprint("zwembad renovatie"), NewFingerprint("fietspad leien"))
	if disjoint != 0 {
		t.Fatalf("disjoint similarity = %v, want 0", disjoint)
	}
}

func TestIDFDownweightsCommonTerms(t *testing.T) {
	docs := []*Fingerprint{
		NewFingerprint("mobiliteit fietspad leien"),
		NewFingerprint("mobiliteit parkeren centrum"),
		NewFingerprint("mobiliteit tramlijn noord"),
	}
	corpus := NewCorpus()
	for _, fp := range docs {
		corpus.Add(fp)
	}
	idf := corpus.IDF()
	if idf["mobiliteit"] >= idf["fietspad"] {
		t.Fatalf("expected shared term to weigh less: %v vs %v", idf["mobiliteit"], idf["fietspad"])
	}
	plain := CosineSimilarity(docs[0], docs[1])
	weighted := CosineSimilarity(docs[0].WithIDF(idf), docs[1].WithIDF(idf))
	if weighted >= plain {
		t.Fatalf("expected IDF to lower similarity driven by shared term: %v >= %v", weighted, plain)
	}
	if (*Fingerprint)(nil).WithIDF(idf) != nil {
		t.Fatal("expected nil fingerprint to stay nil")
	}
}
