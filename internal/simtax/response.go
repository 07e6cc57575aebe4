package simtax

import (
	"strings"

	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/model"
	"simtax-adapter/internal/msgtree"
	"simtax-adapter/internal/stuf"
)

// Answer berichtsoorten.
const (
	berichtsoortAnswer = "La01"
	berichtsoortAck    = "Bv03"
)

// answerContent builds a La01 antwoordBericht holding one BLJ per assessment.
func answerContent(req Header, assessments []model.Assessment) map[string]any {
	body := stuf.Ordered{}
	for _, a := range assessments {
		body = append(body, stuf.KV{Key: "ns2:BLJ", Value: assessmentNode(a)})
	}
	return map[string]any{
		"ns2:antwoordBericht": stuf.Ordered{
			{Key: "ns1:stuurgegevens", Value: replyHeader(req, berichtsoortAnswer, req.Entiteittype)},
			{Key: "ns2:body", Value: body},
		},
	}
}

// ackContent builds the Bv03 acknowledgement of a notification.
func ackContent(req Header) map[string]any {
	return map[string]any{
		"ns1:Bv03Bericht": stuf.Ordered{
			{Key: "ns1:stuurgegevens", Value: replyHeader(req, berichtsoortAck, "")},
		},
	}
}

// errorContent is the body of every non-2xx result. Details are merged over
// the message, so a downstream error body is passed on as it was received.
func errorContent(e *apperr.Error) map[string]any {
	content := map[string]any{
		"Error": e.Message,
		"code":  e.Code,
	}
	for k, v := range e.Details {
		content[k] = v
	}
	return content
}

// replyHeader echoes the request stuurgegevens with sender and receiver
// swapped.
func replyHeader(req Header, berichtsoort, entiteittype string) stuf.Ordered {
	hdr := stuf.Ordered{{Key: "ns1:berichtsoort", Value: berichtsoort}}
	if entiteittype != "" {
		hdr = append(hdr, stuf.KV{Key: "ns1:entiteittype", Value: entiteittype})
	}
	if req.Ontvanger != nil {
		hdr = append(hdr, stuf.KV{Key: "ns1:zender", Value: prefixed(req.Ontvanger, "ns1:")})
	}
	if req.Zender != nil {
		hdr = append(hdr, stuf.KV{Key: "ns1:ontvanger", Value: prefixed(req.Zender, "ns1:")})
	}
	return append(hdr,
		stuf.KV{Key: "ns1:referentienummer", Value: req.Referentienummer},
		stuf.KV{Key: "ns1:tijdstipBericht", Value: req.TijdstipBericht},
		stuf.KV{Key: "ns1:crossRefnummer", Value: req.Referentienummer},
	)
}

// prefixed rewrites element keys of a decoded node to prefix, so echoed
// header parts use the namespace this side declares.
func prefixed(node msgtree.Tree, prefix string) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		if k == msgtree.TextKey || strings.HasPrefix(k, msgtree.AttrPrefix) {
			out[k] = v
			continue
		}
		out[prefix+msgtree.LocalName(k)] = v
	}
	return out
}

func assessmentNode(a model.Assessment) stuf.Ordered {
	node := stuf.Ordered{
		{Key: "ns2:aanslagBiljetNummer", Value: a.AssessmentNumber},
		{Key: "ns2:aanslagBiljetVolgNummer", Value: a.SequenceNumber},
		{Key: "ns2:belastingJaar", Value: a.TaxYear},
		{Key: "ns2:dagtekening", Value: a.AssessmentDate},
		{Key: "ns2:vervaldatum", Value: a.DueDate},
		{Key: "ns2:totaalBedrag", Value: a.TotalAmount},
		{Key: "ns2:indBezwaarMogelijk", Value: a.ObjectionPossible},
	}
	if a.CitizenID != "" {
		node = append(node, stuf.KV{Key: "ns2:BLJPRSBLG", Value: stuf.Ordered{
			{Key: "ns2:PRS", Value: stuf.Ordered{{Key: "ns2:bsn-nummer", Value: a.CitizenID}}},
		}})
	}
	for _, line := range a.Lines {
		node = append(node, stuf.KV{Key: "ns2:aanslagregel", Value: stuf.Ordered{
			{Key: "ns2:belastingplichtnummer", Value: line.TaxpayerNumber},
			{Key: "ns2:belastingSoort", Value: line.TaxType},
			{Key: "ns2:omschrijving", Value: line.Description},
			{Key: "ns2:bedrag", Value: line.Amount},
			{Key: "ns2:indBezwaarMogelijk", Value: line.ObjectionPossible},
		}})
	}
	return node
}
