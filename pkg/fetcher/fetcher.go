// Package fetcher performs the HTTP calls to the data sources configured for a
// city. Every call is a single attempt: failures are classified and returned,
// never retried.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/citypark/platform/pkg/common/httpclient"
	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a source response is read into memory.
const maxBodyBytes = 32 << 20

type UnsupportedMethodError struct {
	City   string
	URL    string
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("Failed to process the request for the city : %s, at url : %s, with method : %s.\n"+
		"Please contact administrator, configuration is wrong for this city endpoint", e.City, e.URL, e.Method)
}

type TransportError struct {
	City       string
	URL        string
	Method     string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Failed to reach the url : %s, with method : %s, for the city : %s", e.URL, e.Method, e.City)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseMethod maps a configured method token onto an HTTP method.
func ParseMethod(method string) (string, bool) {
	switch strings.ToLower(method) {
	case "get":
		return http.MethodGet, true
	case "post":
		return http.MethodPost, true
	case "put":
		return http.MethodPut, true
	case "delete":
		return http.MethodDelete, true
	case "patch":
		return http.MethodPatch, true
	default:
		return "", false
	}
}

type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type Options struct {
	Timeout time.Duration
	// OAuth, when set, authenticates every source call with a client
	// credentials token.
	OAuth *OAuthConfig
}

type Client struct {
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := httpclient.New(timeout)

	if opts.OAuth != nil && opts.OAuth.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     opts.OAuth.ClientID,
			ClientSecret: opts.OAuth.ClientSecret,
			TokenURL:     opts.OAuth.TokenURL,
			Scopes:       opts.OAuth.Scopes,
		}
		// The token endpoint is reached through the same tuned transport.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		authed := cc.Client(ctx)
		authed.Timeout = timeout
		return &Client{httpClient: authed}
	}

	return &Client{httpClient: base}
}

// Fetch calls the source once and returns the response body.
func (c *Client) Fetch(ctx context.Context, city string, req models.SourceRequest) ([]byte, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"city":   city,
		"url":    req.URL,
		"method": req.Method,
	})
	log.Info("Calling parking data source")

	method, ok := ParseMethod(req.Method)
	if !ok {
		err := &UnsupportedMethodError{City: city, URL: req.URL, Method: strings.ToLower(req.Method)}
		log.Error(err.Error())
		return nil, err
	}

	transportErr := func(status int, cause error) error {
		err := &TransportError{
			City:       city,
			URL:        req.URL,
			Method:     req.Method,
			StatusCode: status,
			Timeout:    httpclient.IsTimeout(cause),
			Err:        cause,
		}
		log.WithError(cause).WithField("status", status).Error(err.Error())
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, transportErr(0, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportErr(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, transportErr(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportErr(resp.StatusCode, fmt.Errorf("reading response body: %w", err))
	}

	log.WithField("bytes", len(body)).Debug("Parking data source answered")
	return body, nil
}
