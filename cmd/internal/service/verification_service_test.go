package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"faceid/cmd/internal/contract"
	"faceid/cmd/internal/domain/entity"
	"faceid/cmd/internal/infrastructure/idwall"
	"faceid/cmd/internal/infrastructure/serpro"
	"faceid/cmd/internal/utils/apierror"
	"faceid/cmd/internal/validators"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnexpectedCall = errors.New("unexpected call")

type fakeRegistry struct {
	getPerson func(cpf string) (*entity.RegistryPerson, error)
	calls     int
}

func (f *fakeRegistry) GetPerson(_ context.Context, cpf string) (*entity.RegistryPerson, error) {
	f.calls++
	if f.getPerson == nil {
		return nil, errUnexpectedCall
	}
	return f.getPerson(cpf)
}

type fakeVendor struct {
	createProfile func(profile *idwall.Profile) (bool, error)
	startFlow     func(ref, flowID string) (bool, error)
	getEnrichment func(ref string) (*idwall.Enrichment, error)
	getProfile    func(ref string) (*idwall.ProfileDetail, error)
	sendFace      func(ref string, image []byte) (*idwall.UploadResult, error)
	sendDocument  func(ref string, side idwall.DocumentSide, image []byte) (*idwall.UploadResult, error)

	flowCalls int
}

func (f *fakeVendor) CreateProfile(_ context.Context, profile *idwall.Profile) (bool, error) {
	if f.createProfile == nil {
		return false, errUnexpectedCall
	}
	return f.createProfile(profile)
}

func (f *fakeVendor) StartFlow(_ context.Context, ref, flowID string) (bool, error) {
	f.flowCalls++
	if f.startFlow == nil {
		return false, errUnexpectedCall
	}
	return f.startFlow(ref, flowID)
}

func (f *fakeVendor) GetEnrichment(_ context.Context, ref string) (*idwall.Enrichment, error) {
	if f.getEnrichment == nil {
		return nil, errUnexpectedCall
	}
	return f.getEnrichment(ref)
}

func (f *fakeVendor) GetProfile(_ context.Context, ref string) (*idwall.ProfileDetail, error) {
	if f.getProfile == nil {
		return nil, errUnexpectedCall
	}
	return f.getProfile(ref)
}

func (f *fakeVendor) SendFaceImage(_ context.Context, ref string, image []byte) (*idwall.UploadResult, error) {
	if f.sendFace == nil {
		return nil, errUnexpectedCall
	}
	return f.sendFace(ref, image)
}

func (f *fakeVendor) SendDocument(_ context.Context, ref string, side idwall.DocumentSide, image []byte) (*idwall.UploadResult, error) {
	if f.sendDocument == nil {
		return nil, errUnexpectedCall
	}
	return f.sendDocument(ref, side, image)
}

func newTestService(registry RegistryClient, vendor VendorClient) *DefaultVerificationService {
	validate := validator.New()
	_ = validate.RegisterValidation("cpf", validators.Cpf)
	_ = validate.RegisterValidation("dataurl", validators.DataURL)

	s := NewVerificationService(registry, vendor, validate, FlowConfig{
		Kyc:      "flow-kyc",
		Face:     "flow-face",
		Document: "flow-doc",
	})
	s.SettleDelay = 0
	return s
}

func dataURL(content string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func matchingPerson() *entity.RegistryPerson {
	return &entity.RegistryPerson{
		CPF:       "12345678901",
		Name:      "JOAO DA SILVA",
		BirthDate: "10051990",
		Status:    "Regular",
	}
}

func matchingEnrichment() *idwall.Enrichment {
	return &idwall.Enrichment{
		Data:      json.RawMessage(`{"profileSourcesData":[]}`),
		SourceRaw: json.RawMessage(`{"personal":{}}`),
		Personal: &entity.PersonalData{
			Name:      "JOAO DA SILVA",
			BirthDate: "10/05/1990",
			CPFNumber: "12345678901",
			Income:    "2500.5",
		},
	}
}

func TestLookupCpf(t *testing.T) {
	t.Run("invalid cpf short-circuits before any network call", func(t *testing.T) {
		registry := &fakeRegistry{}
		s := newTestService(registry, &fakeVendor{})

		_, apierr := s.LookupCpf(&contract.CpfLookupRequest{Cpf: "123"})
		require.NotNil(t, apierr)
		assert.Equal(t, http.StatusBadRequest, apierr.Code())
		assert.Zero(t, registry.calls)
	})

	t.Run("formatted cpf is cleaned", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(cpf string) (*entity.RegistryPerson, error) {
			assert.Equal(t, "12345678901", cpf)
			return matchingPerson(), nil
		}}
		s := newTestService(registry, &fakeVendor{})

		resp, apierr := s.LookupCpf(&contract.CpfLookupRequest{Cpf: "123.456.789-01"})
		require.Nil(t, apierr)

		assert.True(t, resp.Valid)
		assert.Equal(t, "JOAO DA SILVA", resp.Nome)
		assert.Equal(t, "10051990", resp.Nascimento)
		assert.Equal(t, "Regular", resp.Situacao)
	})

	t.Run("token failure", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(string) (*entity.RegistryPerson, error) {
			return nil, serpro.ErrTokenUnavailable
		}}
		s := newTestService(registry, &fakeVendor{})

		_, apierr := s.LookupCpf(&contract.CpfLookupRequest{Cpf: "12345678901"})
		require.NotNil(t, apierr)
		assert.Equal(t, apierror.TokenUnavailableError, apierr)
	})

	t.Run("upstream failure keeps the provider status", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(string) (*entity.RegistryPerson, error) {
			return nil, &serpro.UpstreamError{StatusCode: http.StatusBadGateway, Raw: "oops"}
		}}
		s := newTestService(registry, &fakeVendor{})

		_, apierr := s.LookupCpf(&contract.CpfLookupRequest{Cpf: "12345678901"})
		require.NotNil(t, apierr)
		assert.Equal(t, http.StatusBadGateway, apierr.Code())
	})
}

func validVerifyRequest() *contract.VerifyIdentityRequest {
	return &contract.VerifyIdentityRequest{
		Nome:           "Joao Da Silva",
		Cpf:            "12345678901",
		DataNascimento: "1990-05-10",
	}
}

func TestVerifyIdentity(t *testing.T) {
	t.Run("missing fields rejected before any call", func(t *testing.T) {
		registry := &fakeRegistry{}
		s := newTestService(registry, &fakeVendor{})

		_, apierr := s.VerifyIdentity(&contract.VerifyIdentityRequest{Cpf: "12345678901"})
		require.NotNil(t, apierr)
		assert.Equal(t, http.StatusBadRequest, apierr.Code())
		assert.Zero(t, registry.calls)
	})

	t.Run("approved end to end", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(string) (*entity.RegistryPerson, error) {
			return matchingPerson(), nil
		}}
		vendor := &fakeVendor{
			createProfile: func(profile *idwall.Profile) (bool, error) {
				assert.Equal(t, "12345678901", profile.Ref)
				assert.Equal(t, "1990-05-10", profile.Personal.BirthDate)
				assert.Equal(t, 1, profile.Status)
				return true, nil
			},
			startFlow: func(ref, flowID string) (bool, error) {
				assert.Equal(t, "flow-kyc", flowID)
				return true, nil
			},
			getEnrichment: func(string) (*idwall.Enrichment, error) {
				return matchingEnrichment(), nil
			},
			getProfile: func(string) (*idwall.ProfileDetail, error) {
				return &idwall.ProfileDetail{Segments: []*entity.Segment{{ID: "1", Name: "Aprovado Nivel 1"}}}, nil
			},
		}
		s := newTestService(registry, vendor)

		resp, apierr := s.VerifyIdentity(validVerifyRequest())
		require.Nil(t, apierr)

		assert.True(t, resp.KycAprovado)
		assert.Equal(t, string(entity.KycApproved), resp.StatusKycBasico)
		assert.True(t, resp.PerfilCriado)
		assert.Equal(t, "1990-05-10", resp.Nascimento)
		assert.Equal(t, "JOAO DA SILVA", resp.Nome)
		require.Len(t, resp.Validacoes, 3)
		assert.Contains(t, resp.Logs, "Status do KYC: Aprovado")
		require.Len(t, resp.Segmentos, 1)
		assert.Equal(t, 1, vendor.flowCalls)
	})

	t.Run("existing profile skips the flow trigger", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(string) (*entity.RegistryPerson, error) {
			return matchingPerson(), nil
		}}
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return false, nil },
			getEnrichment: func(string) (*idwall.Enrichment, error) { return matchingEnrichment(), nil },
			getProfile: func(string) (*idwall.ProfileDetail, error) {
				return &idwall.ProfileDetail{}, nil
			},
		}
		s := newTestService(registry, vendor)

		resp, apierr := s.VerifyIdentity(validVerifyRequest())
		require.Nil(t, apierr)

		assert.False(t, resp.PerfilCriado)
		assert.Zero(t, vendor.flowCalls)
		assert.Contains(t, resp.Logs, "Perfil já existente; fluxo não disparado.")
	})

	t.Run("no enrichment yet is a distinct state", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(string) (*entity.RegistryPerson, error) {
			return matchingPerson(), nil
		}}
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return true, nil },
			startFlow:     func(string, string) (bool, error) { return true, nil },
			getEnrichment: func(string) (*idwall.Enrichment, error) {
				return &idwall.Enrichment{Data: json.RawMessage(`{}`)}, nil
			},
			getProfile: func(string) (*idwall.ProfileDetail, error) {
				return &idwall.ProfileDetail{}, nil
			},
		}
		s := newTestService(registry, vendor)

		resp, apierr := s.VerifyIdentity(validVerifyRequest())
		require.Nil(t, apierr)

		assert.False(t, resp.KycAprovado)
		assert.Equal(t, []string{"Nenhum dado encontrado no enrichment."}, resp.Validacoes)
		assert.Equal(t, string(entity.KycPending), resp.StatusKycBasico)
	})

	t.Run("unparseable registry birth date fails the run", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(string) (*entity.RegistryPerson, error) {
			person := matchingPerson()
			person.BirthDate = "10/05/1990"
			return person, nil
		}}
		s := newTestService(registry, &fakeVendor{})

		_, apierr := s.VerifyIdentity(validVerifyRequest())
		require.NotNil(t, apierr)
		assert.Equal(t, apierror.RegistryDateError, apierr)
	})

	t.Run("vendor 401 surfaces as auth failure", func(t *testing.T) {
		registry := &fakeRegistry{getPerson: func(string) (*entity.RegistryPerson, error) {
			return matchingPerson(), nil
		}}
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) {
				return false, &idwall.StatusError{StatusCode: http.StatusUnauthorized}
			},
		}
		s := newTestService(registry, vendor)

		_, apierr := s.VerifyIdentity(validVerifyRequest())
		require.NotNil(t, apierr)
		assert.Equal(t, http.StatusUnauthorized, apierr.Code())
	})
}

func TestRegisterFace(t *testing.T) {
	validRequest := func() *contract.RegisterFaceRequest {
		return &contract.RegisterFaceRequest{
			Cpf:            "12345678901",
			Nome:           "Joao Da Silva",
			DataNascimento: "1990-05-10",
			FotoBase64:     dataURL("png-bytes"),
		}
	}

	t.Run("success", func(t *testing.T) {
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return true, nil },
			startFlow:     func(ref, flowID string) (bool, error) { return true, nil },
			sendFace: func(ref string, image []byte) (*idwall.UploadResult, error) {
				assert.Equal(t, []byte("png-bytes"), image)
				return &idwall.UploadResult{StatusCode: 200, Body: json.RawMessage(`{"ok":true}`)}, nil
			},
		}
		s := newTestService(&fakeRegistry{}, vendor)

		resp, apierr := s.RegisterFace(validRequest())
		require.Nil(t, apierr)
		assert.Equal(t, "Imagem de face cadastrada com sucesso.", resp.Mensagem)
		assert.JSONEq(t, `{"ok":true}`, string(resp.Resultado))
	})

	t.Run("flow trigger failure does not block submission", func(t *testing.T) {
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return true, nil },
			startFlow: func(string, string) (bool, error) {
				return false, &idwall.StatusError{StatusCode: http.StatusNotFound}
			},
			sendFace: func(string, []byte) (*idwall.UploadResult, error) {
				return &idwall.UploadResult{StatusCode: 200, Body: json.RawMessage(`{}`)}, nil
			},
		}
		s := newTestService(&fakeRegistry{}, vendor)

		_, apierr := s.RegisterFace(validRequest())
		assert.Nil(t, apierr)
	})

	t.Run("upload rejection carries the vendor status", func(t *testing.T) {
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return true, nil },
			startFlow:     func(string, string) (bool, error) { return true, nil },
			sendFace: func(string, []byte) (*idwall.UploadResult, error) {
				return nil, &idwall.StatusError{StatusCode: http.StatusUnprocessableEntity}
			},
		}
		s := newTestService(&fakeRegistry{}, vendor)

		_, apierr := s.RegisterFace(validRequest())
		require.NotNil(t, apierr)
		assert.Equal(t, http.StatusUnprocessableEntity, apierr.Code())
	})

	t.Run("undecodable image rejected before any call", func(t *testing.T) {
		req := validRequest()
		req.FotoBase64 = "data:image/png;base64,???"

		s := newTestService(&fakeRegistry{}, &fakeVendor{})
		_, apierr := s.RegisterFace(req)
		require.NotNil(t, apierr)
		assert.Equal(t, apierror.InvalidImageError, apierr)
	})
}

func TestUploadDocument(t *testing.T) {
	validRequest := func() *contract.DocumentUploadRequest {
		return &contract.DocumentUploadRequest{
			Cpf:            "12345678901",
			Nome:           "Joao Da Silva",
			DataNascimento: "1990-05-10",
			Frente:         dataURL("front-bytes"),
			Verso:          dataURL("back-bytes"),
		}
	}

	t.Run("both sides uploaded and reported", func(t *testing.T) {
		vendor := &fakeVendor{
			createProfile: func(profile *idwall.Profile) (bool, error) {
				// Document flow speaks slash-separated dates.
				assert.Equal(t, "1990/05/10", profile.Personal.BirthDate)
				return true, nil
			},
			startFlow: func(ref, flowID string) (bool, error) {
				assert.Equal(t, "flow-doc", flowID)
				return true, nil
			},
			sendDocument: func(ref string, side idwall.DocumentSide, image []byte) (*idwall.UploadResult, error) {
				switch side {
				case idwall.DocumentFront:
					assert.Equal(t, []byte("front-bytes"), image)
					return &idwall.UploadResult{StatusCode: 200, Body: json.RawMessage(`{"side":"front"}`)}, nil
				default:
					assert.Equal(t, []byte("back-bytes"), image)
					return &idwall.UploadResult{StatusCode: 400, Body: json.RawMessage(`{"side":"back"}`)}, nil
				}
			},
			getProfile: func(string) (*idwall.ProfileDetail, error) {
				return &idwall.ProfileDetail{Documents: json.RawMessage(`[{"type":"RG"}]`)}, nil
			},
		}
		s := newTestService(&fakeRegistry{}, vendor)

		resp, apierr := s.UploadDocument(validRequest())
		require.Nil(t, apierr)

		assert.True(t, resp.Success)
		assert.Equal(t, "created", resp.ProfileStatus)
		assert.Equal(t, "started", resp.FlowStatus)
		require.NotNil(t, resp.FrenteUpload)
		require.NotNil(t, resp.VersoUpload)
		assert.Equal(t, 200, resp.FrenteUpload.Status)
		assert.Equal(t, 400, resp.VersoUpload.Status)
		assert.JSONEq(t, `[{"type":"RG"}]`, string(resp.Documentos))
	})

	t.Run("flow failure downgraded to status", func(t *testing.T) {
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return false, nil },
			startFlow: func(string, string) (bool, error) {
				return false, &idwall.StatusError{StatusCode: http.StatusNotFound}
			},
			sendDocument: func(_ string, _ idwall.DocumentSide, _ []byte) (*idwall.UploadResult, error) {
				return &idwall.UploadResult{StatusCode: 200, Body: json.RawMessage(`{}`)}, nil
			},
			getProfile: func(string) (*idwall.ProfileDetail, error) { return &idwall.ProfileDetail{}, nil },
		}
		s := newTestService(&fakeRegistry{}, vendor)

		resp, apierr := s.UploadDocument(validRequest())
		require.Nil(t, apierr)

		assert.True(t, resp.Success)
		assert.Equal(t, "existing", resp.ProfileStatus)
		assert.Equal(t, "failed", resp.FlowStatus)
	})

	t.Run("transport failure on upload fails the run", func(t *testing.T) {
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return true, nil },
			startFlow:     func(string, string) (bool, error) { return true, nil },
			sendDocument: func(_ string, side idwall.DocumentSide, _ []byte) (*idwall.UploadResult, error) {
				if side == idwall.DocumentBack {
					return nil, errors.New("connection reset")
				}
				return &idwall.UploadResult{StatusCode: 200, Body: json.RawMessage(`{}`)}, nil
			},
		}
		s := newTestService(&fakeRegistry{}, vendor)

		_, apierr := s.UploadDocument(validRequest())
		require.NotNil(t, apierr)
		assert.Equal(t, http.StatusInternalServerError, apierr.Code())
	})

	t.Run("lost final consult does not fail the upload", func(t *testing.T) {
		vendor := &fakeVendor{
			createProfile: func(*idwall.Profile) (bool, error) { return true, nil },
			startFlow:     func(string, string) (bool, error) { return true, nil },
			sendDocument: func(_ string, _ idwall.DocumentSide, _ []byte) (*idwall.UploadResult, error) {
				return &idwall.UploadResult{StatusCode: 200, Body: json.RawMessage(`{}`)}, nil
			},
			getProfile: func(string) (*idwall.ProfileDetail, error) {
				return nil, &idwall.StatusError{StatusCode: http.StatusBadGateway}
			},
		}
		s := newTestService(&fakeRegistry{}, vendor)

		resp, apierr := s.UploadDocument(validRequest())
		require.Nil(t, apierr)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Documentos)
	})
}
