package webflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/user/dashboard-scraper/internal/repository"
	"github.com/user/dashboard-scraper/pkg/utils"
)

// AssetUploader uploads images to the site's asset host in two steps: an
// API call registers the file hash and returns presigned form fields, then
// the file is posted to the storage URL.
type AssetUploader struct {
	*Client
	// ParentFolder optionally places assets in a folder.
	ParentFolder string
}

var _ repository.AssetUploader = (*AssetUploader)(nil)

func NewAssetUploader(c *Client, parentFolder string) *AssetUploader {
	return &AssetUploader{Client: c, ParentFolder: parentFolder}
}

type assetRequest struct {
	FileName     string `json:"fileName"`
	FileHash     string `json:"fileHash"`
	ParentFolder string `json:"parentFolder,omitempty"`
}

type assetResponse struct {
	UploadURL     string            `json:"uploadUrl"`
	UploadDetails map[string]string `json:"uploadDetails"`
	HostedURL     string            `json:"hostedUrl"`
}

// Upload registers and uploads data, returning the hosted URL.
func (u *AssetUploader) Upload(ctx context.Context, siteID, fileName string, data []byte) (string, error) {
	var meta assetResponse
	err := u.do(ctx, http.MethodPost, "/v2/sites/"+url.PathEscape(siteID)+"/assets", assetRequest{
		FileName:     fileName,
		FileHash:     utils.MD5Hex(data),
		ParentFolder: u.ParentFolder,
	}, &meta)
	if err != nil {
		return "", err
	}
	if meta.UploadURL == "" {
		return "", fmt.Errorf("%w: asset registration returned no upload URL", repository.ErrCollaborator)
	}

	body, contentType, err := multipartBody(meta.UploadDetails, fileName, data)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, meta.UploadURL, body)
	if err != nil {
		return "", fmt.Errorf("build asset upload: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: asset upload: %v", repository.ErrCollaborator, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: asset upload returned %d: %s", repository.ErrCollaborator, resp.StatusCode, string(msg))
	}

	u.logger.Info("asset uploaded", zap.String("file", fileName), zap.String("hosted_url", meta.HostedURL))
	return meta.HostedURL, nil
}

func multipartBody(fields map[string]string, fileName string, data []byte) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
