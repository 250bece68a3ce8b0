package enrichment

import (
	"encoding/json"
	"strings"
)

const systemPrompt = `Je bent een assistent die transcripties van gemeenteraadscommissies
structureert in combinatie met agenda-informatie.

Je krijgt één mondelinge vraag uit de agenda, met:
- meeting_date en commission_name
- dossier_id, dossier_year_nr, sequence_nr
- title, subject, roi_type
- submitter (naam, fractie)
- assignee (bevoegde schepen; label + naam)
- question_text_from_agenda = officieel aangeleverde vraag
en de volledige transcriptie van de vergadering.

TAAK:
1. Lokaliseer in de transcriptie waar de vraagsteller spreekt en bepaal question_start_time / question_end_time.
2. Lokaliseer waar de bevoegde schepen antwoordt en bepaal answer_start_time / answer_end_time.
3. answer_text_verbatim = quasi letterlijke weergave van het antwoord van de schepen, in correct Nederlands,
   met lichte contextuele correcties (namen, versprekingen). Respecteer inhoud, volgorde en kernzinnen.
4. answer_text_raw = gebalde, goed leesbare synthese van hetzelfde antwoord. Neem alle inhoudelijke
   elementen, cijfers, toezeggingen en vervolgacties op. Laat replieken en bijkomende vragen achterwege.
5. summary = max. 3 zinnen in het Nederlands.
6. actions = lijst met actiepunten (strings) of leeg wanneer er geen acties zijn.
7. topics = korte thematische labels; gebruik "Overig" als niets past.

OUTPUT:
Geef strikt geldig JSON, zonder andere tekst:
{
  "question_start_time": "H:MM:SS.mmm",
  "question_end_time": "H:MM:SS.mmm",
  "answer_start_time": "H:MM:SS.mmm",
  "answer_end_time": "H:MM:SS.mmm",
  "answer_text_verbatim": "...",
  "answer_text_raw": "...",
  "summary": "...",
  "actions": ["..."],
  "topics": ["..."],
  "note": ""
}

Als je de vraag niet met voldoende zekerheid kan lokaliseren, zet dan answer_text_verbatim en
answer_text_raw op een lege string en vul note met bv.
"Kon deze vraag niet met zekerheid in de transcriptie lokaliseren."`

type promptQuestion struct {
	MeetingDate         string `json:"meeting_date,omitempty"`
	CommissionName      string `json:"commission_name,omitempty"`
	DossierID           string `json:"dossier_id,omitempty"`
	DossierYearNr       string `json:"dossier_year_nr,omitempty"`
	SequenceNr          string `json:"sequence_nr,omitempty"`
	Title               string `json:"title,omitempty"`
	Subject             string `json:"subject,omitempty"`
	RoiType             string `json:"roi_type,omitempty"`
	SubmitterGivenName  string `json:"submitter_given_name,omitempty"`
	SubmitterFamilyName string `json:"submitter_family_name,omitempty"`
	SubmitterFaction    string `json:"submitter_faction,omitempty"`
	AssigneeLabel       string `json:"assignee_label,omitempty"`
	AssigneeGivenName   string `json:"assignee_given_name,omitempty"`
	AssigneeFamilyName  string `json:"assignee_family_name,omitempty"`
	QuestionText        string `json:"question_text_from_agenda"`
}

func buildUserPrompt(req Request) (string, error) {
	q := req.Question
	payload, err := json.MarshalIndent(promptQuestion{
		MeetingDate:         req.MeetingDate,
		CommissionName:      req.CommissionName,
		DossierID:           q.DossierID,
		DossierYearNr:       q.DossierYearNr,
		SequenceNr:          q.SequenceNr,
		Title:               q.Title,
		Subject:             q.Subject,
		RoiType:             q.RoiType,
		SubmitterGivenName:  q.SubmitterGivenName,
		SubmitterFamilyName: q.SubmitterFamilyName,
		SubmitterFaction:    q.SubmitterFaction,
		AssigneeLabel:       q.AssigneeLabel,
		AssigneeGivenName:   q.AssigneeGivenName,
		AssigneeFamilyName:  q.AssigneeFamilyName,
		QuestionText:        q.QuestionText,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Vraag uit de agenda (JSON):\n\n")
	b.Write(payload)
	b.WriteString("\n\nVolledige transcriptie:\n\n")
	b.WriteString(req.Transcript)
	return b.String(), nil
}
