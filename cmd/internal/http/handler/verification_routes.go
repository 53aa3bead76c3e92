package handler

import (
	"net/http"

	"faceid/cmd/internal/contract"
	"faceid/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type VerificationService interface {
	LookupCpf(req *contract.CpfLookupRequest) (*contract.CpfLookupResponse, apierror.ErrorResponse)
	VerifyIdentity(req *contract.VerifyIdentityRequest) (*contract.VerifyIdentityResponse, apierror.ErrorResponse)
	RegisterFace(req *contract.RegisterFaceRequest) (*contract.RegisterFaceResponse, apierror.ErrorResponse)
	UploadDocument(req *contract.DocumentUploadRequest) (*contract.DocumentUploadResponse, apierror.ErrorResponse)
}

type DefaultVerificationRoute struct {
	VerificationService VerificationService
}

func NewVerificationDefault(verificationService VerificationService) *DefaultVerificationRoute {
	return &DefaultVerificationRoute{VerificationService: verificationService}
}

func (v *DefaultVerificationRoute) LookupCpf(c echo.Context) error {
	var req contract.CpfLookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := v.VerificationService.LookupCpf(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *DefaultVerificationRoute) VerifyIdentity(c echo.Context) error {
	var req contract.VerifyIdentityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := v.VerificationService.VerifyIdentity(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *DefaultVerificationRoute) RegisterFace(c echo.Context) error {
	var req contract.RegisterFaceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := v.VerificationService.RegisterFace(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *DefaultVerificationRoute) UploadDocument(c echo.Context) error {
	var req contract.DocumentUploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	resp, apierr := v.VerificationService.UploadDocument(&req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
