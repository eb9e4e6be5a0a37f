// Package huggingface provides cascade adapters for Hugging Face backends.
//
// Two backend families are supported:
//
//   - the managed inference gateway (router.huggingface.co), an
//     OpenAI-compatible API returning JSON envelopes with data URLs
//   - direct model endpoints (api-inference.huggingface.co/models/{model}),
//     returning the raw image body
//
// Both authenticate with a bearer token. Each family may use its own token.
package huggingface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mhpenta/nailgen"
)

const (
	// DefaultGatewayURL is the OpenAI-compatible inference gateway.
	DefaultGatewayURL = "https://router.huggingface.co/hf-inference/v3/openai"

	// DefaultHubURL is the direct model inference endpoint.
	DefaultHubURL = "https://api-inference.huggingface.co/models"

	// DefaultGatewayProvider is sent as the gateway's "provider" field.
	DefaultGatewayProvider = "hf-inference"

	// DefaultSize is the output size requested from the gateway.
	DefaultSize = "1024x1024"

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 4 << 10

	// maxImageBody caps how much of a success response is read.
	maxImageBody = 32 << 20
)

// Model identifiers used by the default adapter set.
const (
	ModelSDXL               = "stabilityai/stable-diffusion-xl-base-1.0"
	ModelSD15               = "runwayml/stable-diffusion-v1-5"
	ModelInstructPix2Pix    = "timbrooks/instruct-pix2pix"
	ModelControlNetCanny    = "lllyasviel/sd-controlnet-canny"
	ModelDreamlikePhotoreal = "dreamlike-art/dreamlike-photoreal-2.0"
	ModelOpenjourney        = "prompthero/openjourney"
)

// DefaultHTTPClient bounds a call even if the caller's context has no deadline.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 2 * time.Minute}
}

// client performs the POST/normalize cycle shared by every adapter.
type client struct {
	name       string
	apiKey     string
	httpClient *http.Client
}

func newClient(name, apiKey string, httpClient *http.Client) client {
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	return client{name: name, apiKey: apiKey, httpClient: httpClient}
}

// postJSON sends body to endpoint and returns the normalized image bytes.
func (c client) postJSON(ctx context.Context, endpoint string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, c.fail(nailgen.KindPayload, 0, "encoding request body", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail(nailgen.KindTransport, 0, "creating request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png, application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(transportKind(ctx, err), 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(errBody))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &nailgen.ProviderError{
			Adapter:    c.name,
			StatusCode: resp.StatusCode,
			Kind:       nailgen.KindStatus,
			Message:    msg,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBody+1))
	if err != nil {
		return nil, c.fail(transportKind(ctx, err), resp.StatusCode, "reading response", err)
	}
	if len(data) > maxImageBody {
		return nil, &nailgen.ProviderError{
			Adapter:    c.name,
			StatusCode: resp.StatusCode,
			Kind:       nailgen.KindPayload,
			Message:    fmt.Sprintf("response exceeds %d bytes", maxImageBody),
		}
	}

	img, err := normalize(resp.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, c.fail(nailgen.KindPayload, resp.StatusCode, "decoding response", err)
	}
	return img, nil
}

func (c client) fail(kind nailgen.ErrorKind, status int, msg string, err error) error {
	return &nailgen.ProviderError{
		Adapter:    c.name,
		StatusCode: status,
		Kind:       kind,
		Message:    fmt.Sprintf("%s: %v", msg, err),
		Err:        err,
	}
}

func transportKind(ctx context.Context, err error) nailgen.ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nailgen.KindTimeout
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		return nailgen.KindCanceled
	default:
		return nailgen.KindTransport
	}
}

// envelope is the gateway's OpenAI-style images response. Hub endpoints
// report errors in the same JSON body shape under "error".
type envelope struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error any `json:"error"`
}

// normalize returns raw image bytes from either a JSON envelope or a binary body.
func normalize(contentType string, body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	isJSON := mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
	if !isJSON && mediaType == "" {
		isJSON = bytes.HasPrefix(bytes.TrimSpace(body), []byte("{"))
	}
	if !isJSON {
		sniffed := http.DetectContentType(body)
		if !strings.HasPrefix(sniffed, "image/") && !strings.HasPrefix(mediaType, "image/") {
			return nil, fmt.Errorf("unexpected content type %q", sniffed)
		}
		return body, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid JSON envelope: %w", err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("backend error: %v", env.Error)
	}
	if len(env.Data) == 0 {
		return nil, errors.New("envelope contains no images")
	}

	item := env.Data[0]
	switch {
	case item.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("invalid b64_json: %w", err)
		}
		return data, nil
	case strings.HasPrefix(item.URL, "data:"):
		_, data, err := nailgen.DecodeDataURL(item.URL)
		return data, err
	case item.URL != "":
		return nil, fmt.Errorf("remote image URLs are not supported: %s", item.URL)
	default:
		return nil, errors.New("envelope image has neither url nor b64_json")
	}
}
