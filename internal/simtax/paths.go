package simtax

// Tree paths use local names; msgtree matches them whatever prefixes the
// sender used.
const (
	envelopeRequest      = "vraagBericht"
	envelopeNotification = "kennisgevingsBericht"

	pathHeader           = "stuurgegevens"
	fieldBerichtsoort    = "berichtsoort"
	fieldEntiteittype    = "entiteittype"
	fieldReferentie      = "referentienummer"
	fieldTijdstipBericht = "tijdstipBericht"
	fieldZender          = "zender"
	fieldOntvanger       = "ontvanger"

	pathAssessmentGroups = "body.BLJ"
	pathGroupCitizenID   = "BLJPRSBLG.PRS.bsn-nummer"

	pathAssessmentNumber   = "body.OPO.aanslagBiljetNummer"
	pathAssessmentSequence = "body.OPO.aanslagBiljetVolgNummer"

	pathObjection            = "body.BGB"
	pathObjectionNumber      = "aanvraagnummer"
	pathObjectionDate        = "aanvraagdatum"
	pathObjectionHeard       = "indGehoordWorden"
	pathObjectionCitizenID   = "BGBPRSBZW.PRS.bsn-nummer"
	pathObjectionAttachments = "bijlagen.bijlage"
	pathAttachmentName       = "bestandsnaam"
	pathAttachmentType       = "mimeType"
	pathAttachmentContent    = "inhoud"

	pathExtraContainer = "extraElementen"
	pathExtraElements  = "extraElementen.extraElement"
	attrExtraName      = "@naam"

	extraTaxYear = "belastingJaar"
)

// Envelope locations tried in order. The SOAP wrapper is optional so that
// callers which already stripped it can pass the bare StUF message.
var envelopePrefixes = []string{"Envelope.Body.", "Body.", ""}
