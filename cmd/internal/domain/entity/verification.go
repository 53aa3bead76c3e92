package entity

// KycStatus is the coarse verification status derived from the
// vendor's profile segments.
type KycStatus string

const (
	KycApproved KycStatus = "APROVADO"
	KycPending  KycStatus = "PENDENTE"
	KycUnknown  KycStatus = "INDEFINIDO"
)

// IdentityClaim holds the identity the caller says they have.
// Immutable once a pipeline run starts.
type IdentityClaim struct {
	CPF       string
	Name      string
	BirthDate string // ISO (YYYY-MM-DD)
}

// RegistryPerson is the identity of record returned by the CPF registry.
type RegistryPerson struct {
	CPF       string
	Name      string
	BirthDate string // raw registry format (DDMMYYYY)
	Status    string
}

// PersonalData is the vendor-sourced identity snapshot a claim is
// matched against.
type PersonalData struct {
	Name               string
	BirthDate          string
	CPFNumber          string
	Income             string
	IncomeTaxSituation string
}

// Segment is a tag the vendor attaches to a profile once a flow has run.
type Segment struct {
	ID   string
	Name string
}

// Verdict is the outcome of matching a claim against vendor data.
// It is derived on every call and never persisted.
type Verdict struct {
	Findings []string
	Approved bool
	Status   KycStatus
}
