package grouping

import (
	"sort"
	"strings"

	"github.com/stevendeporre123/quest-app/internal/textutil"
)

// DefaultSimilarityThreshold is the TF-IDF cosine similarity above which two
// questions are suggested as one group.
const DefaultSimilarityThreshold = 0.6

// Candidate is the agenda metadata used to suggest groups.
type Candidate struct {
	ID        int64
	SourceIdx int
	DossierID string
	Title     string
	Subject   string
	Text      string
	// Inherits is true when the question already has an assignment.
	Inherits bool
}

// Suggestion proposes that QuestionID inherit its answer from SourceID.
type Suggestion struct {
	QuestionID int64   `json:"question_id"`
	SourceID   int64   `json:"source_id"`
	Reason     string  `json:"reason"`
	Score      float64 `json:"score"`
}

const (
	ReasonSharedDossier = "shared_dossier"
	ReasonSimilarText   = "similar_text"
)

// Suggest proposes inheritance assignments within one meeting. The earliest
// question of a group, by agenda order, is proposed as the source; every
// later question gets at most one suggestion. Questions that already
// inherit are left alone. Suggestions only ever point backwards in agenda
// order, so applying all of them cannot create a cycle.
func Suggest(candidates []Candidate, threshold float64) []Suggestion {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	ordered := append([]Candidate(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SourceIdx != ordered[j].SourceIdx {
			return ordered[i].SourceIdx < ordered[j].SourceIdx
		}
		return ordered[i].ID < ordered[j].ID
	})

	corpus := textutil.NewCorpus()
	prints := make([]*textutil.Fingerprint, len(ordered))
	for i, c := range ordered {
		prints[i] = textutil.NewFingerprint(strings.Join([]string{c.Title, c.Subject, c.Text}, " "))
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	for i := range prints {
		prints[i] = prints[i].WithIDF(idf)
	}

	firstByDossier := make(map[string]int64)
	var out []Suggestion
	for i, c := range ordered {
		dossier := strings.TrimSpace(c.DossierID)
		if dossier != "" {
			if primary, seen := firstByDossier[dossier]; seen {
				if !c.Inherits {
					out = append(out, Suggestion{QuestionID: c.ID, SourceID: primary, Reason: ReasonSharedDossier, Score: 1})
				}
				continue
			}
			firstByDossier[dossier] = c.ID
		}
		if c.Inherits {
			continue
		}
		best, bestScore := -1, threshold
		for j := 0; j < i; j++ {
			if ordered[j].Inherits {
				continue
			}
			if score := textutil.CosineSimilarity(prints[i], prints[j]); score >= bestScore {
				best, bestScore = j, score
			}
		}
		if best >= 0 {
			out = append(out, Suggestion{QuestionID: c.ID, SourceID: ordered[best].ID, Reason: ReasonSimilarText, Score: bestScore})
		}
	}
	return out
}
