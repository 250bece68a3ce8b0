package grouping_test

import (
	"testing"

	"github.com/stevendeporre123/quest-app/internal/grouping"
)

func TestSuggestSharedDossierPointsAtFirstQuestion(t *testing.T) {
	candidates := []grouping.Candidate{
		{ID: 12, SourceIdx: 2, DossierID: "2026_MV_00100", Title: "Parkeren Zuid"},
		{ID: 10, SourceIdx: 0, DossierID: "2026_MV_00100", Title: "Parkeerbeleid Zuid"},
		{ID: 11, SourceIdx: 1, DossierID: "2026_MV_00200", Title: "Zwembad renovatie"},
	}
	got := grouping.Suggest(candidates, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %+v", got)
	}
	if got[0].QuestionID != 12 || got[0].SourceID != 10 || got[0].Reason != grouping.ReasonSharedDossier {
		t.Fatalf("unexpected suggestion: %+v", got[0])
	}
}

func TestSuggestSimilarText(t *testing.T) {
	candidates := []grouping.Candidate{
		{ID: 1, SourceIdx: 0, Title: "Renovatie zwembad Wezenberg", Text: "Wanneer start de renovatie van zwembad Wezenberg?"},
		{ID: 2, SourceIdx: 1, Title: "Fietspad Leien", Text: "Komt er een veilig fietspad op de Leien?"},
		{ID: 3, SourceIdx: 2, Title: "Zwembad Wezenberg renovatie", Text: "Wat is de timing voor de renovatie van zwembad Wezenberg?"},
	}
	got := grouping.Suggest(candidates, 0.5)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %+v", got)
	}
	if got[0].QuestionID != 3 || got[0].SourceID != 1 || got[0].Reason != grouping.ReasonSimilarText {
		t.Fatalf("unexpected suggestion: %+v", got[0])
	}
	if got[0].Score < 0.5 || got[0].Score > 1 {
		t.Fatalf("unexpected score: %v", got[0].Score)
	}
}

func TestSuggestSkipsExistingAssignments(t *testing.T) {
	candidates := []grouping.Candidate{
		{ID: 1, SourceIdx: 0, DossierID: "D1"},
		{ID: 2, SourceIdx: 1, DossierID: "D1", Inherits: true},
	}
	if got := grouping.Suggest(candidates, 0); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %+v", got)
	}
}
