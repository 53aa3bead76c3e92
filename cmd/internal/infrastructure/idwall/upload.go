package idwall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

type DocumentSide string

const (
	DocumentFront DocumentSide = "FRONT"
	DocumentBack  DocumentSide = "BACK"
)

const documentTypeRG = "RG"

// UploadResult is the vendor's per-upload answer. Document uploads
// report it even for rejected sides, so the caller can relay both
// sides' outcomes.
type UploadResult struct {
	StatusCode int             `json:"status"`
	Body       json.RawMessage `json:"body"`
}

// SendFaceImage submits a face capture against the profile. The vendor
// needs its flow provisioned before accepting the image, so callers
// must respect the settle delay between triggering the flow and
// calling this.
func (c *Client) SendFaceImage(ctx context.Context, ref string, image []byte) (*UploadResult, error) {
	form, contentType, err := buildUploadForm("photo", "face.png", "image/png", image, map[string]string{
		"ref": ref,
	})
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, "POST", c.baseURL+"/profile-face-image", form, contentType)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, &StatusError{StatusCode: status, Message: vendorMessage(body), Body: rawJSON(body)}
	}
	return &UploadResult{StatusCode: status, Body: rawJSON(body)}, nil
}

// SendDocument submits one side of an identity document. Unlike the
// face upload, a non-2xx answer is still a result: the pipeline
// reports both sides' statuses instead of short-circuiting.
func (c *Client) SendDocument(ctx context.Context, ref string, side DocumentSide, image []byte) (*UploadResult, error) {
	fileName := strings.ToLower(string(side)) + ".jpg"
	form, contentType, err := buildUploadForm("file", fileName, "image/jpeg", image, map[string]string{
		"ref":          ref,
		"documentType": documentTypeRG,
		"documentSide": string(side),
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/profile/%s/document", c.baseURL, ref)
	status, body, err := c.do(ctx, "POST", url, form, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadResult{StatusCode: status, Body: rawJSON(body)}, nil
}

func buildUploadForm(field, fileName, mimeType string, image []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err = part.Write(image); err != nil {
		return nil, "", err
	}

	for name, value := range fields {
		if err = writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if err = writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
