package simtax

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/model"
	"simtax-adapter/internal/stuf"
)

const objectionRequest = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <ns2:kennisgevingsBericht xmlns:ns1="http://www.egem.nl/StUF/StUF0301" xmlns:ns2="http://www.egem.nl/StUF/sector/bg/0310">
      <ns1:stuurgegevens>
        <ns1:berichtsoort>Lk01</ns1:berichtsoort>
        <ns1:entiteittype>BGB</ns1:entiteittype>
        <ns1:zender><ns1:applicatie>MijnOmgeving</ns1:applicatie></ns1:zender>
        <ns1:ontvanger><ns1:applicatie>SIMtax</ns1:applicatie></ns1:ontvanger>
        <ns1:referentienummer>ref-bgb-1</ns1:referentienummer>
        <ns1:tijdstipBericht>20260314093000000</ns1:tijdstipBericht>
      </ns1:stuurgegevens>
      <ns2:body>
        <ns2:BGB ns1:entiteittype="BGB">
          <ns2:aanvraagnummer>AV-2026-0001</ns2:aanvraagnummer>
          <ns2:aanvraagdatum>20260314093000123456</ns2:aanvraagdatum>
          <ns2:indGehoordWorden>J</ns2:indGehoordWorden>
          <ns2:BGBPRSBZW><ns2:PRS><ns2:bsn-nummer>999993653</ns2:bsn-nummer></ns2:PRS></ns2:BGBPRSBZW>
          <ns2:bijlagen>
            <ns2:bijlage>
              <ns2:bestandsnaam>taxatie.pdf</ns2:bestandsnaam>
              <ns2:mimeType>application/pdf</ns2:mimeType>
              <ns2:inhoud>JVBERi0xLjQ=</ns2:inhoud>
            </ns2:bijlage>
          </ns2:bijlagen>
          <ns1:extraElementen>
            <ns1:extraElement naam="kenmerkNummerBesluit">123456-2</ns1:extraElement>
            <ns1:extraElement naam="kenmerkVolgNummerBesluit">2</ns1:extraElement>
            <ns1:extraElement naam="belastingplichtnummer">42</ns1:extraElement>
            <ns1:extraElement naam="beschikkingSleutel">WOZ-0363-1</ns1:extraElement>
            <ns1:extraElement naam="codeGriefSoort">HOOG</ns1:extraElement>
            <ns1:extraElement naam="toelichtingGrief">Aanslag te hoog</ns1:extraElement>
            <ns1:extraElement naam="codeGriefSoort">WAARDE</ns1:extraElement>
            <ns1:extraElement naam="keuzeOmschrijvingGrief">Waarde te hoog</ns1:extraElement>
            <ns1:extraElement naam="toelichtingGrief">Buurpand is goedkoper</ns1:extraElement>
          </ns1:extraElementen>
        </ns2:BGB>
      </ns2:body>
    </ns2:kennisgevingsBericht>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

func locateFixture(t *testing.T, raw string) *Message {
	t.Helper()
	tree, err := stuf.Decode([]byte(raw))
	require.NoError(t, err)
	msg, err := Locate(tree)
	require.NoError(t, err)
	return msg
}

func TestMapObjection(t *testing.T) {
	record, grouping, err := MapObjection(locateFixture(t, objectionRequest))
	require.NoError(t, err)
	assert.Empty(t, grouping.Dropped)

	assert.Equal(t, "AV-2026-0001", *record.ApplicationNumber)
	assert.Equal(t, "2026-03-14", *record.ApplicationDate)
	assert.True(t, record.WantsToBeHeard)
	assert.Equal(t, "999993653", record.Taxpayer.CitizenID)
	assert.Equal(t, "123456", *record.AssessmentNumber)
	assert.Equal(t, "2", *record.AssessmentSequenceNumber)
	assert.Equal(t, []model.Attachment{{
		FileName:    "taxatie.pdf",
		FileType:    "application/pdf",
		FileContent: "JVBERi0xLjQ=",
	}}, record.Attachments)
	assert.Equal(t, []model.AssessmentLineObjection{{
		TaxpayerNumber: "0000000000042",
		Grievances:     []model.Grievance{{Kind: "HOOG", Explanation: "Aanslag te hoog"}},
	}}, record.AssessmentLineObjections)
	assert.Equal(t, []model.DecisionLineObjection{{
		DecisionLineKey: "WOZ-0363-1",
		Grievances:      []model.Grievance{{Kind: "WAARDE", Explanation: "Waarde te hoog - Buurpand is goedkoper"}},
	}}, record.DecisionLineObjections)
}

func TestMapObjectionValidatesBeforeMapping(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(msg *Message)
		code   string
	}{
		{
			name:   "referentienummer",
			mutate: func(msg *Message) { msg.Header.Referentienummer = "" },
			code:   apperr.CodeMissingReference,
		},
		{
			name:   "tijdstipBericht",
			mutate: func(msg *Message) { msg.Header.TijdstipBericht = "" },
			code:   apperr.CodeMissingTimestamp,
		},
		{
			name: "citizen id",
			mutate: func(msg *Message) {
				bgb, _ := msg.Envelope.Sub(pathObjection)
				delete(bgb, "ns2:BGBPRSBZW")
			},
			code: apperr.CodeMissingCitizenID,
		},
		{
			name: "extra elements",
			mutate: func(msg *Message) {
				bgb, _ := msg.Envelope.Sub(pathObjection)
				delete(bgb, "ns1:extraElementen")
			},
			code: apperr.CodeMissingExtraElements,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := locateFixture(t, objectionRequest)
			tt.mutate(msg)

			_, _, err := MapObjection(msg)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, http.StatusBadRequest, apperr.From(err).Status)
		})
	}
}

func TestMapObjectionCompletenessGuard(t *testing.T) {
	msg := locateFixture(t, objectionRequest)
	bgb, _ := msg.Envelope.Sub(pathObjection)
	bgb["ns1:extraElementen"] = map[string]any{}

	_, grouping, err := MapObjection(msg)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "MissingField:assessmentNumber"), "got %v", err)
	assert.Empty(t, grouping.AssessmentLines)
	assert.Empty(t, grouping.DecisionLines)
}

func TestMapObjectionEmptyExtraElementsReachCompletenessCheck(t *testing.T) {
	start := strings.Index(objectionRequest, "<ns1:extraElementen>")
	end := strings.Index(objectionRequest, "</ns1:extraElementen>") + len("</ns1:extraElementen>")
	require.True(t, start > 0 && end > start)

	for name, empty := range map[string]string{
		"self closing": "<ns1:extraElementen/>",
		"open close":   "<ns1:extraElementen></ns1:extraElementen>",
	} {
		t.Run(name, func(t *testing.T) {
			raw := objectionRequest[:start] + empty + objectionRequest[end:]

			_, grouping, err := MapObjection(locateFixture(t, raw))
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, "MissingField:assessmentNumber"), "got %v", err)
			assert.Equal(t, http.StatusBadRequest, apperr.From(err).Status)
			assert.Empty(t, grouping.AssessmentLines)
			assert.Empty(t, grouping.DecisionLines)
			assert.Empty(t, grouping.Dropped)
		})
	}
}

func TestMapObjectionOptionalFields(t *testing.T) {
	msg := locateFixture(t, objectionRequest)
	bgb, _ := msg.Envelope.Sub(pathObjection)
	bgb["ns2:indGehoordWorden"] = "N"
	delete(bgb, "ns2:bijlagen")
	delete(bgb, "ns2:aanvraagnummer")

	_, _, err := MapObjection(msg)
	assert.True(t, apperr.HasCode(err, "MissingField:applicationNumber"), "got %v", err)

	bgb["ns2:aanvraagnummer"] = "AV-2"
	record, _, err := MapObjection(msg)
	require.NoError(t, err)
	assert.False(t, record.WantsToBeHeard)
	assert.Empty(t, record.Attachments)
	assert.NotNil(t, record.Attachments)
}

func TestParseApplicationDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20260314093000123456", "2026-03-14"},
		{"20260314", "2026-03-14"},
		{"20261314", ""},
		{"2026031409300012345x", ""},
		{"2026-03-14", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := ParseApplicationDate(tt.in)
		if tt.want == "" {
			assert.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		assert.Equal(t, tt.want, *got)
	}
}
