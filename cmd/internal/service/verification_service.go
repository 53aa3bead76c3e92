package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"faceid/cmd/internal/contract"
	"faceid/cmd/internal/domain/entity"
	"faceid/cmd/internal/domain/kyc"
	"faceid/cmd/internal/infrastructure/idwall"
	"faceid/cmd/internal/infrastructure/serpro"
	"faceid/cmd/internal/utils"
	"faceid/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

// The vendor backend needs a moment to provision a freshly triggered
// flow before it accepts image submissions.
const defaultSettleDelay = 3 * time.Second

const (
	profileStatusCreated  = "created"
	profileStatusExisting = "existing"

	flowStatusStarted = "started"
	flowStatusRunning = "already-running"
	flowStatusFailed  = "failed"
)

type RegistryClient interface {
	GetPerson(ctx context.Context, cpf string) (*entity.RegistryPerson, error)
}

type VendorClient interface {
	CreateProfile(ctx context.Context, profile *idwall.Profile) (bool, error)
	StartFlow(ctx context.Context, ref, flowID string) (bool, error)
	GetEnrichment(ctx context.Context, ref string) (*idwall.Enrichment, error)
	GetProfile(ctx context.Context, ref string) (*idwall.ProfileDetail, error)
	SendFaceImage(ctx context.Context, ref string, image []byte) (*idwall.UploadResult, error)
	SendDocument(ctx context.Context, ref string, side idwall.DocumentSide, image []byte) (*idwall.UploadResult, error)
}

// FlowConfig holds the vendor flow id for each flow type.
type FlowConfig struct {
	Kyc      string
	Face     string
	Document string
}

type DefaultVerificationService struct {
	Registry    RegistryClient
	Vendor      VendorClient
	Validate    *validator.Validate
	Flows       FlowConfig
	SettleDelay time.Duration
}

func NewVerificationService(
	registry RegistryClient,
	vendor VendorClient,
	validate *validator.Validate,
	flows FlowConfig,
) *DefaultVerificationService {
	return &DefaultVerificationService{
		Registry:    registry,
		Vendor:      vendor,
		Validate:    validate,
		Flows:       flows,
		SettleDelay: defaultSettleDelay,
	}
}

// LookupCpf is the registry-only pipeline: token, lookup, format.
func (s *DefaultVerificationService) LookupCpf(req *contract.CpfLookupRequest) (*contract.CpfLookupResponse, apierror.ErrorResponse) {
	cpf := utils.CleanCPF(req.Cpf)
	if !utils.IsCPFValid(cpf) {
		return nil, apierror.InvalidCPFError
	}

	// Pipeline runs are never cancelled once started.
	person, err := s.Registry.GetPerson(context.Background(), cpf)
	if err != nil {
		return nil, classifyRegistryError(cpf, err)
	}

	return &contract.CpfLookupResponse{
		Valid:      true,
		Nome:       person.Name,
		Nascimento: person.BirthDate,
		Situacao:   person.Status,
	}, nil
}

// VerifyIdentity is the registry + vendor verdict pipeline: the claim
// is checked against the registry, a vendor profile is ensured, the
// enrichment and segments are read and the claim is matched against
// the vendor-sourced data.
func (s *DefaultVerificationService) VerifyIdentity(req *contract.VerifyIdentityRequest) (*contract.VerifyIdentityResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	ctx := context.Background()
	cpf := utils.CleanCPF(req.Cpf)
	claim := &entity.IdentityClaim{CPF: cpf, Name: req.Nome, BirthDate: req.DataNascimento}

	person, err := s.Registry.GetPerson(ctx, cpf)
	if err != nil {
		return nil, classifyRegistryError(cpf, err)
	}

	birthISO := kyc.ToISO(person.BirthDate)
	if birthISO == "" {
		log.Warnf("registry returned unparseable birth date %q for cpf %s", person.BirthDate, cpf)
		return nil, apierror.RegistryDateError
	}

	created, err := s.ensureProfile(ctx, claim, claim.BirthDate)
	if err != nil {
		return nil, classifyVendorError("Erro ao criar perfil", err)
	}

	var logs []string
	if created {
		started, ferr := s.Vendor.StartFlow(ctx, cpf, s.Flows.Kyc)
		if ferr != nil {
			return nil, classifyVendorError("Erro ao iniciar fluxo", ferr)
		}
		if started {
			logs = append(logs, "Fluxo de verificação disparado.")
		} else {
			logs = append(logs, "Fluxo de verificação já em andamento.")
		}
	} else {
		logs = append(logs, "Perfil já existente; fluxo não disparado.")
	}

	record, err := s.Vendor.GetEnrichment(ctx, cpf)
	if err != nil {
		return nil, classifyVendorError("Erro ao consultar enrichment", err)
	}

	detail, err := s.Vendor.GetProfile(ctx, cpf)
	if err != nil {
		return nil, classifyVendorError("Erro ao consultar perfil", err)
	}
	status := kyc.StatusFromSegments(detail.Segments)

	resp := &contract.VerifyIdentityResponse{
		Mensagem:        "Consulta realizada com sucesso",
		Nome:            person.Name,
		Nascimento:      birthISO,
		StatusKycBasico: string(status),
		Enrichment:      record.Data,
		PerfilCriado:    created,
		Segmentos:       toSegmentsResponse(detail.Segments),
	}

	// No source data yet is a valid state of its own, not a mismatch.
	if record.Personal == nil {
		resp.Validacoes = []string{"Nenhum dado encontrado no enrichment."}
		resp.Logs = logs
		return resp, nil
	}

	verdict := kyc.Evaluate(claim, record.Personal)
	verdict.Status = status

	resp.Validacoes = verdict.Findings
	resp.KycAprovado = verdict.Approved
	resp.FonteCompleta = record.SourceRaw
	resp.Logs = append(logs, verdictLogs(claim, record.Personal, verdict)...)
	return resp, nil
}

// RegisterFace is the face capture pipeline: profile, flow trigger
// (non-fatal), settle delay, image submission.
func (s *DefaultVerificationService) RegisterFace(req *contract.RegisterFaceRequest) (*contract.RegisterFaceResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	image, err := utils.DecodeDataURL(req.FotoBase64)
	if err != nil {
		return nil, apierror.InvalidImageError
	}

	ctx := context.Background()
	cpf := utils.CleanCPF(req.Cpf)
	claim := &entity.IdentityClaim{CPF: cpf, Name: req.Nome, BirthDate: req.DataNascimento}

	if _, err = s.ensureProfile(ctx, claim, claim.BirthDate); err != nil {
		return nil, classifyVendorError("Erro ao criar perfil", err)
	}

	s.triggerFlowNonFatal(ctx, cpf, s.Flows.Face)
	time.Sleep(s.SettleDelay)

	result, err := s.Vendor.SendFaceImage(ctx, cpf, image)
	if err != nil {
		return nil, classifyVendorError("Erro ao cadastrar imagem facial", err)
	}

	return &contract.RegisterFaceResponse{
		Mensagem:  "Imagem de face cadastrada com sucesso.",
		Resultado: result.Body,
	}, nil
}

// UploadDocument is the document capture pipeline. Front and back run
// concurrently once the settle delay has passed; each side reports its
// own vendor status instead of short-circuiting the other.
func (s *DefaultVerificationService) UploadDocument(req *contract.DocumentUploadRequest) (*contract.DocumentUploadResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	frente, err := utils.DecodeDataURL(req.Frente)
	if err != nil {
		return nil, apierror.InvalidImageError
	}
	verso, err := utils.DecodeDataURL(req.Verso)
	if err != nil {
		return nil, apierror.InvalidImageError
	}

	ctx := context.Background()
	cpf := utils.CleanCPF(req.Cpf)
	claim := &entity.IdentityClaim{CPF: cpf, Name: req.Nome, BirthDate: req.DataNascimento}

	// The document flow expects slash-separated birth dates.
	created, err := s.ensureProfile(ctx, claim, strings.ReplaceAll(req.DataNascimento, "-", "/"))
	if err != nil {
		return nil, classifyVendorError("Erro ao criar perfil", err)
	}
	profileStatus := profileStatusExisting
	if created {
		profileStatus = profileStatusCreated
	}

	flowStatus := s.triggerFlowNonFatal(ctx, cpf, s.Flows.Document)
	time.Sleep(s.SettleDelay)

	var frenteUpload, versoUpload *idwall.UploadResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var uerr error
		frenteUpload, uerr = s.Vendor.SendDocument(gctx, cpf, idwall.DocumentFront, frente)
		return uerr
	})
	g.Go(func() error {
		var uerr error
		versoUpload, uerr = s.Vendor.SendDocument(gctx, cpf, idwall.DocumentBack, verso)
		return uerr
	})
	if err = g.Wait(); err != nil {
		return nil, classifyVendorError("Erro ao enviar documentos", err)
	}

	// The final consult is informative only; losing it must not fail
	// an upload that already went through.
	var documentos json.RawMessage
	if detail, derr := s.Vendor.GetProfile(ctx, cpf); derr != nil {
		log.Warnf("profile consult after document upload failed for ref %s: %v", cpf, derr)
	} else {
		documentos = detail.Documents
	}

	return &contract.DocumentUploadResponse{
		Success:       true,
		Message:       "Documentos enviados e verificação iniciada",
		ProfileStatus: profileStatus,
		FrenteUpload:  toUploadResponse(frenteUpload),
		VersoUpload:   toUploadResponse(versoUpload),
		FlowStatus:    flowStatus,
		Documentos:    documentos,
	}, nil
}

// ensureProfile creates or adopts the vendor profile keyed by the
// claim's CPF. Returns whether the profile was created just now.
func (s *DefaultVerificationService) ensureProfile(ctx context.Context, claim *entity.IdentityClaim, birthDate string) (bool, error) {
	return s.Vendor.CreateProfile(ctx, &idwall.Profile{
		Ref: claim.CPF,
		Personal: idwall.Personal{
			Name:      claim.Name,
			BirthDate: birthDate,
			CPFNumber: claim.CPF,
		},
		Status: 1,
	})
}

// triggerFlowNonFatal fires the flow but never fails the pipeline:
// image submission should not be blocked by a flow-trigger hiccup.
func (s *DefaultVerificationService) triggerFlowNonFatal(ctx context.Context, ref, flowID string) string {
	started, err := s.Vendor.StartFlow(ctx, ref, flowID)
	switch {
	case err != nil:
		log.Warnf("flow trigger failed for ref %s: %v; proceeding with submission", ref, err)
		return flowStatusFailed
	case started:
		return flowStatusStarted
	default:
		return flowStatusRunning
	}
}

func classifyRegistryError(cpf string, err error) apierror.ErrorResponse {
	if errors.Is(err, serpro.ErrTokenUnavailable) {
		log.Errorf("serpro token fetch failed: %v", err)
		return apierror.TokenUnavailableError
	}

	var upstream *serpro.UpstreamError
	if errors.As(err, &upstream) {
		log.Warnf("serpro lookup for cpf %s answered %d", cpf, upstream.StatusCode)
		return apierror.NewDetailed(upstream.StatusCode, "Erro na consulta ao CPF", upstream.Raw)
	}

	log.Errorf("serpro lookup failed for cpf %s: %v", cpf, err)
	return apierror.InternalServerError
}

func classifyVendorError(msg string, err error) apierror.ErrorResponse {
	var vendor *idwall.StatusError
	if errors.As(err, &vendor) {
		if vendor.StatusCode == http.StatusUnauthorized {
			return apierror.VendorAuthError
		}
		return apierror.NewDetailed(vendor.StatusCode, msg, vendor.Body)
	}

	log.Errorf("%s: %v", msg, err)
	return apierror.InternalServerError
}

func verdictLogs(claim *entity.IdentityClaim, source *entity.PersonalData, verdict *entity.Verdict) []string {
	outcome := "Reprovado"
	if verdict.Approved {
		outcome = "Aprovado"
	}

	return []string{
		"Status do KYC: " + outcome,
		"CPF: " + claim.CPF,
		"Nome fornecido: " + claim.Name,
		"Data de nascimento: " + claim.BirthDate,
		"Nome retornado: " + source.Name,
		"Nascimento retornado: " + source.BirthDate,
		"Renda: " + source.Income,
		"Situação IR: " + source.IncomeTaxSituation,
	}
}

func toSegmentsResponse(segments []*entity.Segment) []*contract.SegmentResponse {
	resp := make([]*contract.SegmentResponse, len(segments))
	for i, seg := range segments {
		resp[i] = &contract.SegmentResponse{ID: seg.ID, Name: seg.Name}
	}
	return resp
}

func toUploadResponse(result *idwall.UploadResult) *contract.UploadStatusResponse {
	if result == nil {
		return nil
	}
	return &contract.UploadStatusResponse{Status: result.StatusCode, Body: result.Body}
}
