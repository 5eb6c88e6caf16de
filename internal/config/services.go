package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxDocumentSize = 1 << 20

// ErrDocumentTooLarge is returned when a remote services document exceeds 1 MiB.
var ErrDocumentTooLarge = errors.New("services document exceeds 1 MiB")

// Service describes a single monitored service.
type Service struct {
	Name string `json:"name"`
	// URL is a display-only link to the service's home page.
	URL            string `json:"url,omitempty"`
	HealthcheckURL string `json:"healthcheckUrl"`
}

// Validate checks required fields only. A malformed healthcheck URL is
// reported by the checker as an unhealthy result, not as a load failure.
func (s Service) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.HealthcheckURL, validation.Required),
	)
}

// Document is the services document, usually served as config.json.
type Document struct {
	Services []Service `json:"services"`
}

// LoadServices fetches and parses the services document from source, which
// is either an http(s) URL or a file path. client may be nil.
func LoadServices(ctx context.Context, source string, client *http.Client) ([]Service, error) {
	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = fetch(ctx, source, client)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("reading services document %q: %w", source, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing services document: %w", err)
	}
	if doc.Services == nil {
		return nil, errors.New(`parsing services document: missing "services" array`)
	}

	for i, svc := range doc.Services {
		if err := svc.Validate(); err != nil {
			return nil, fmt.Errorf("service[%d]: %w", i, err)
		}
	}
	return doc.Services, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func fetch(ctx context.Context, url string, client *http.Client) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	return data, nil
}
