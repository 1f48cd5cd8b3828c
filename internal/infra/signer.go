package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SignRequest is the claim set forwarded to the token-signing service. The
// signing secret never lives in this process; the service assembles and signs
// {sub, role, device_id, iat, exp} and returns the opaque token.
type SignRequest struct {
	UserID     string `json:"user_id"`
	Rol        string `json:"rol"`
	DeviceID   string `json:"device_id"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// SignResponse is returned by the signing service.
type SignResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// SignerClient talks to the external token-signing service over HTTPS.
// Failures here are surfaced to the login flow as token-issuance errors,
// distinct from credential failures.
type SignerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewSignerClient(baseURL string) *SignerClient {
	return &SignerClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Sign posts the claim set and returns the signed bearer token.
func (c *SignerClient) Sign(ctx context.Context, req SignRequest) (*SignResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("signer: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("signer: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("signer: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signer: returned %d", resp.StatusCode)
	}

	var result SignResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("signer: decode response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("signer: empty access_token in response")
	}
	return &result, nil
}
