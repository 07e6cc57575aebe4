package simtax

import (
	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/msgtree"
)

// OperationKind is the operation a StUF message asks for.
type OperationKind int

const (
	Unrecognized OperationKind = iota
	ListAssessments
	GetAssessment
	CreateObjection
)

type operationKey struct {
	berichtsoort string
	entiteittype string
}

var operations = map[operationKey]OperationKind{
	{"Lv01", "BLJ"}: ListAssessments,
	{"Lv01", "OPO"}: GetAssessment,
	{"Lk01", "BGB"}: CreateObjection,
}

// Classify maps the (berichtsoort, entiteittype) header pair to an operation.
func Classify(berichtsoort, entiteittype string) OperationKind {
	return operations[operationKey{berichtsoort, entiteittype}]
}

// String returns the wire identifier, e.g. "Lv01-BLJ".
func (k OperationKind) String() string {
	switch k {
	case ListAssessments:
		return "Lv01-BLJ"
	case GetAssessment:
		return "Lv01-OPO"
	case CreateObjection:
		return "Lk01-BGB"
	default:
		return "unrecognized"
	}
}

// EnvelopeKind tells which StUF envelope carried the message.
type EnvelopeKind int

const (
	RequestMessage EnvelopeKind = iota + 1
	NotificationMessage
)

// Header is the stuurgegevens block of a message.
type Header struct {
	Berichtsoort     string
	Entiteittype     string
	Referentienummer string
	TijdstipBericht  string
	Zender           msgtree.Tree
	Ontvanger        msgtree.Tree
}

// Message is a located envelope with its parsed header.
type Message struct {
	Kind      EnvelopeKind
	Header    Header
	Envelope  msgtree.Tree
	Operation OperationKind
}

// Locate finds the request or notification envelope in a decoded body and
// classifies it.
func Locate(tree msgtree.Tree) (*Message, error) {
	for _, prefix := range envelopePrefixes {
		if env, ok := tree.Sub(prefix + envelopeRequest); ok {
			return newMessage(RequestMessage, env)
		}
		if env, ok := tree.Sub(prefix + envelopeNotification); ok {
			return newMessage(NotificationMessage, env)
		}
	}
	return nil, apperr.BadRequest(apperr.CodeMissingHeader, "no vraagBericht or kennisgevingsBericht stuurgegevens found in xml body")
}

func newMessage(kind EnvelopeKind, env msgtree.Tree) (*Message, error) {
	hdr, ok := env.Sub(pathHeader)
	if !ok {
		return nil, apperr.BadRequest(apperr.CodeMissingHeader, "no stuurgegevens found in xml body")
	}

	header := Header{
		Berichtsoort:     hdr.StringOr(fieldBerichtsoort, ""),
		Entiteittype:     hdr.StringOr(fieldEntiteittype, ""),
		Referentienummer: hdr.StringOr(fieldReferentie, ""),
		TijdstipBericht:  hdr.StringOr(fieldTijdstipBericht, ""),
	}
	header.Zender, _ = hdr.Sub(fieldZender)
	header.Ontvanger, _ = hdr.Sub(fieldOntvanger)

	return &Message{
		Kind:      kind,
		Header:    header,
		Envelope:  env,
		Operation: Classify(header.Berichtsoort, header.Entiteittype),
	}, nil
}
