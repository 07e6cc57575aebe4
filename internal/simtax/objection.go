package simtax

import (
	"time"

	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/model"
	"simtax-adapter/internal/msgtree"
	"simtax-adapter/internal/schemagate"
)

const (
	layoutApplicationStamp = "20060102150405"
	layoutApplicationDay   = "20060102"
	layoutISODate          = "2006-01-02"

	// aanvraagdatum carries six microsecond digits after the seconds.
	applicationStampLen = len(layoutApplicationStamp) + 6
)

// MapObjection builds an objection record from a Lk01-BGB notification.
// The returned Grouping reports grievance groups that were dropped on the way.
func MapObjection(msg *Message) (*model.Objection, Grouping, error) {
	if msg.Header.Referentienummer == "" {
		return nil, Grouping{}, apperr.BadRequest(apperr.CodeMissingReference, "no referentienummer in stuurgegevens")
	}
	if msg.Header.TijdstipBericht == "" {
		return nil, Grouping{}, apperr.BadRequest(apperr.CodeMissingTimestamp, "no tijdstipBericht in stuurgegevens")
	}

	bgb, _ := msg.Envelope.Sub(pathObjection)
	citizenID, ok := bgb.String(pathObjectionCitizenID)
	if !ok {
		return nil, Grouping{}, apperr.BadRequest(apperr.CodeMissingCitizenID, "no bsn-nummer for the objecting taxpayer")
	}
	// An empty container is accepted here; the completeness check below
	// reports what it failed to carry.
	if !bgb.Has(pathExtraContainer) {
		return nil, Grouping{}, apperr.BadRequest(apperr.CodeMissingExtraElements, "no extraElementen in objection body")
	}

	record := model.NewObjection()
	record.Taxpayer = &model.Taxpayer{CitizenID: citizenID}
	if number, ok := bgb.String(pathObjectionNumber); ok {
		record.ApplicationNumber = &number
	}
	record.ApplicationDate = ParseApplicationDate(bgb.StringOr(pathObjectionDate, ""))
	record.WantsToBeHeard = bgb.StringOr(pathObjectionHeard, "") == "J"
	record.Attachments = mapAttachments(bgb)

	grouping := GroupExtraElements(ExtraElements(bgb, pathExtraElements))
	record.AssessmentNumber = grouping.AssessmentNumber
	record.AssessmentSequenceNumber = grouping.AssessmentSequenceNumber
	if grouping.AssessmentLines != nil {
		record.AssessmentLineObjections = grouping.AssessmentLines
	}
	if grouping.DecisionLines != nil {
		record.DecisionLineObjections = grouping.DecisionLines
	}

	if err := schemagate.CheckComplete(record); err != nil {
		return nil, grouping, err
	}
	return record, grouping, nil
}

// ParseApplicationDate normalizes aanvraagdatum to YYYY-MM-DD. Both the full
// YYYYMMDDHHmmssuuuuuu stamp and a bare YYYYMMDD are accepted; anything else
// yields nil.
func ParseApplicationDate(raw string) *string {
	var (
		t   time.Time
		err error
	)
	switch len(raw) {
	case applicationStampLen:
		if !allDigits(raw[len(layoutApplicationStamp):]) {
			return nil
		}
		t, err = time.Parse(layoutApplicationStamp, raw[:len(layoutApplicationStamp)])
	case len(layoutApplicationDay):
		t, err = time.Parse(layoutApplicationDay, raw)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	s := t.Format(layoutISODate)
	return &s
}

func mapAttachments(bgb msgtree.Tree) []model.Attachment {
	nodes := bgb.Trees(pathObjectionAttachments)
	out := make([]model.Attachment, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, model.Attachment{
			FileName:    n.StringOr(pathAttachmentName, ""),
			FileType:    n.StringOr(pathAttachmentType, ""),
			FileContent: n.StringOr(pathAttachmentContent, ""),
		})
	}
	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
