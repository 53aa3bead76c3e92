package idwall

import (
	"encoding/json"

	"faceid/cmd/internal/domain/entity"
)

// Profile is the create-or-adopt payload keyed by ref (the CPF).
type Profile struct {
	Ref      string   `json:"ref"`
	Personal Personal `json:"personal"`
	Status   int      `json:"status"`
}

type Personal struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	CPFNumber string `json:"cpfNumber"`
}

// Enrichment is the vendor's third-party sourced snapshot for a
// profile. Data and SourceRaw keep the vendor payloads verbatim so the
// boundary can echo them; Personal is the parsed view the matcher
// consumes, nil while the profile has no source data yet.
type Enrichment struct {
	Data      json.RawMessage
	SourceRaw json.RawMessage
	Personal  *entity.PersonalData
}

type enrichmentEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type enrichmentData struct {
	ProfileSourcesData []struct {
		SourceData json.RawMessage `json:"sourceData"`
	} `json:"profileSourcesData"`
}

type sourceDataResponse struct {
	Personal *personalResponse `json:"personal"`
}

type personalResponse struct {
	Name               string      `json:"name"`
	BirthDate          string      `json:"birthDate"`
	CPFNumber          string      `json:"cpfNumber"`
	Income             json.Number `json:"income"`
	IncomeTaxSituation string      `json:"incomeTaxSituation"`
}

func (e *enrichmentEnvelope) ToRecord() *Enrichment {
	record := &Enrichment{Data: rawJSON(e.Data)}

	var data enrichmentData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return record
	}
	if len(data.ProfileSourcesData) == 0 {
		return record
	}

	sourceRaw := data.ProfileSourcesData[0].SourceData
	var source sourceDataResponse
	if err := json.Unmarshal(sourceRaw, &source); err != nil || source.Personal == nil {
		return record
	}

	record.SourceRaw = sourceRaw
	record.Personal = source.Personal.ToDomain()
	return record
}

func (p *personalResponse) ToDomain() *entity.PersonalData {
	return &entity.PersonalData{
		Name:               p.Name,
		BirthDate:          p.BirthDate,
		CPFNumber:          p.CPFNumber,
		Income:             p.Income.String(),
		IncomeTaxSituation: p.IncomeTaxSituation,
	}
}

// ProfileDetail is the profile consult result: the segments the vendor
// attached after running flows, plus its document records.
type ProfileDetail struct {
	Segments  []*entity.Segment
	Documents json.RawMessage
}

type profileDetailResponse struct {
	Data struct {
		Segments []*segmentResponse `json:"segments"`
	} `json:"data"`
	Documents json.RawMessage `json:"documents"`
}

type segmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p *profileDetailResponse) ToDomain() *ProfileDetail {
	segments := make([]*entity.Segment, len(p.Data.Segments))
	for i, s := range p.Data.Segments {
		segments[i] = &entity.Segment{ID: s.ID, Name: s.Name}
	}

	return &ProfileDetail{
		Segments:  segments,
		Documents: p.Documents,
	}
}
