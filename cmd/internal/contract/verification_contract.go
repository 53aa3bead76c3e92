package contract

import "encoding/json"

// Field names follow the browser-facing boundary, which speaks
// Portuguese (cpf, nome, dataNascimento, ...).

type CpfLookupRequest struct {
	Cpf string `json:"cpf" validate:"required"`
}

type CpfLookupResponse struct {
	Valid      bool   `json:"valid"`
	Nome       string `json:"nome"`
	Nascimento string `json:"nascimento"`
	Situacao   string `json:"situacao"`
}

type VerifyIdentityRequest struct {
	Nome           string `json:"nome" validate:"required,min=2,max=120"`
	Cpf            string `json:"cpf" validate:"required,cpf"`
	DataNascimento string `json:"dataNascimento" validate:"required,datetime=2006-01-02"`
}

type VerifyIdentityResponse struct {
	Mensagem        string             `json:"mensagem"`
	Nome            string             `json:"nome,omitempty"`
	Nascimento      string             `json:"nascimento,omitempty"`
	Validacoes      []string           `json:"validacoes"`
	KycAprovado     bool               `json:"kycAprovado"`
	StatusKycBasico string             `json:"statusKycBasico"`
	Enrichment      json.RawMessage    `json:"enrichment"`
	FonteCompleta   json.RawMessage    `json:"fonteCompleta,omitempty"`
	PerfilCriado    bool               `json:"perfilCriado"`
	Segmentos       []*SegmentResponse `json:"segmentos"`
	Logs            []string           `json:"logs"`
}

type SegmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RegisterFaceRequest struct {
	Cpf            string `json:"cpf" validate:"required,cpf"`
	Nome           string `json:"nome" validate:"required,min=2,max=120"`
	DataNascimento string `json:"dataNascimento" validate:"required,datetime=2006-01-02"`
	FotoBase64     string `json:"fotoBase64" validate:"required,dataurl"`
}

type RegisterFaceResponse struct {
	Mensagem  string          `json:"mensagem"`
	Resultado json.RawMessage `json:"resultado"`
}

type DocumentUploadRequest struct {
	Cpf            string `json:"cpf" validate:"required,cpf"`
	Nome           string `json:"nome" validate:"required,min=2,max=120"`
	DataNascimento string `json:"dataNascimento" validate:"required,datetime=2006-01-02"`
	Frente         string `json:"frente" validate:"required,dataurl"`
	Verso          string `json:"verso" validate:"required,dataurl"`
}

type UploadStatusResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type DocumentUploadResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	ProfileStatus string                `json:"profileStatus"`
	FrenteUpload  *UploadStatusResponse `json:"frenteUpload"`
	VersoUpload   *UploadStatusResponse `json:"versoUpload"`
	FlowStatus    string                `json:"flowStatus"`
	Documentos    json.RawMessage       `json:"documentos"`
}
