package vesyncClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncStructs"
	"go.uber.org/zap"
)

const (
	DefaultHost = "https://smartapi.vesync.com"

	userAgent  = "okhttp/3.12.1"
	phoneBrand = "SM N9005"
	phoneOS    = "Android"
)

type VesyncApiClient struct {
	Host    string
	client  http.Client
	session vesyncStructs.Session
	logger  *zap.SugaredLogger
}

func NewVesyncApiClient(host string, timeout time.Duration, session vesyncStructs.Session, logger *zap.SugaredLogger) *VesyncApiClient {
	return &VesyncApiClient{
		Host: strings.TrimRight(host, "/"),
		client: http.Client{
			Timeout: timeout,
		},
		session: session,
		logger:  logger,
	}
}

// ReqHeaderBypass returns the headers the bypass endpoints expect.
func (c *VesyncApiClient) ReqHeaderBypass() map[string]string {
	return map[string]string{
		"Content-Type": "application/json; charset=UTF-8",
		"User-Agent":   userAgent,
	}
}

// BypassBodyV2 returns a fresh request envelope. Callers add "method" and any
// endpoint specific fields on top of it.
func (c *VesyncApiClient) BypassBodyV2() map[string]any {
	return map[string]any{
		"acceptLanguage":  "en",
		"accountID":       c.session.AccountId,
		"appVersion":      c.session.AppVersion,
		"phoneBrand":      phoneBrand,
		"phoneOS":         phoneOS,
		"timeZone":        c.session.TimeZone,
		"token":           c.session.Token,
		"traceId":         fmt.Sprint(time.Now().Unix()),
		"userCountryCode": c.session.CountryCode,
		"debugMode":       false,
		"deviceRegion":    c.session.Region,
	}
}

// CallApi sends body as JSON to path and returns the decoded response along
// with the HTTP status. A response that is not valid JSON yields a nil value
// and no error; only transport failures are returned as errors.
func (c *VesyncApiClient) CallApi(ctx context.Context, path string, method string, headers map[string]string, body any) (any, int, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request body for %s: %w", path, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), c.Host+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request for %s: %w", path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debugf("VeSync request: %s %s", req.Method, path)
	res, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("read response of %s: %w", path, err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Debugf("VeSync response of %s is not JSON (status %d): %s", path, res.StatusCode, err)
		return nil, res.StatusCode, nil
	}
	c.logger.Debugf("VeSync response: %s status %d", path, res.StatusCode)
	return decoded, res.StatusCode, nil
}
