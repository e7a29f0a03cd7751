package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/kevin07696/settlement-service/internal/domain"
)

const (
	NameAsaas   = "asaas"
	NamePagarme = "pagarme"
	NameStripe  = "stripe"
)

// Normalizer reduces one gateway's callback payloads to a domain.NormalizedEvent.
//
// Detect must be a cheap shape check over the decoded top-level object; it must not
// fail. Normalize returns:
//   - domain.ErrEventUnmapped (wrapped) for event codes with no internal meaning
//   - domain.ErrMalformedPayload (wrapped) when required fields are missing
//   - domain.ErrUnauthorizedSource (wrapped) when a configured credential does not match
type Normalizer interface {
	Name() string
	Detect(fields map[string]json.RawMessage) bool
	Normalize(body []byte, header http.Header) (*domain.NormalizedEvent, error)
}

// Snapshot is an immutable, prioritized list of enabled gateway normalizers.
// Build a new one to change the configuration; never mutate a published Snapshot.
type Snapshot struct {
	normalizers []Normalizer
}

// NewSnapshot freezes normalizers in priority order
func NewSnapshot(normalizers ...Normalizer) *Snapshot {
	frozen := make([]Normalizer, len(normalizers))
	copy(frozen, normalizers)
	return &Snapshot{normalizers: frozen}
}

// Names returns the gateway names in priority order
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.normalizers))
	for _, n := range s.normalizers {
		names = append(names, n.Name())
	}
	return names
}

var validate = validator.New()

// Normalize sniffs which gateway produced body and normalizes it with that gateway.
// The first enabled gateway whose Detect matches wins.
func (s *Snapshot) Normalize(body []byte, header http.Header) (*domain.NormalizedEvent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeValidationMalformedPayload, "payload is not a JSON object", err)
	}

	for _, n := range s.normalizers {
		if !n.Detect(fields) {
			continue
		}

		evt, err := n.Normalize(body, header)
		if err != nil {
			return nil, err
		}
		if !evt.Type.IsValid() {
			return nil, domain.NewDomainError(domain.ErrorCodeValidationMalformedPayload, "normalized event type unknown").
				WithDetail("gateway", n.Name()).
				WithDetail("type", string(evt.Type))
		}
		if err := validate.Struct(evt); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeValidationMalformedPayload, "normalized event incomplete", err).
				WithDetail("gateway", n.Name())
		}
		return evt, nil
	}

	return nil, domain.NewDomainError(domain.ErrorCodeValidationMalformedPayload, "unrecognized gateway payload shape")
}

// Registry publishes the current Snapshot. Readers take the snapshot once per
// request and pass it along explicitly.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry publishing snap
func NewRegistry(snap *Snapshot) *Registry {
	r := &Registry{}
	r.current.Store(snap)
	return r
}

// Current returns the snapshot in effect
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Replace atomically publishes a new snapshot
func (r *Registry) Replace(snap *Snapshot) {
	r.current.Store(snap)
}

// Credentials holds optional per-gateway webhook secrets
type Credentials struct {
	AsaasAccessToken    string
	StripeSigningSecret string
}

// BuildSnapshot creates normalizers for the enabled gateway names, keeping their order.
func BuildSnapshot(enabled []string, creds Credentials) (*Snapshot, error) {
	normalizers := make([]Normalizer, 0, len(enabled))
	seen := make(map[string]bool, len(enabled))

	for _, raw := range enabled {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case NameAsaas:
			normalizers = append(normalizers, NewAsaas(creds.AsaasAccessToken))
		case NamePagarme:
			normalizers = append(normalizers, NewPagarme())
		case NameStripe:
			normalizers = append(normalizers, NewStripe(creds.StripeSigningSecret))
		default:
			return nil, fmt.Errorf("unknown gateway %q", raw)
		}
	}

	if len(normalizers) == 0 {
		return nil, fmt.Errorf("no gateways enabled")
	}

	return NewSnapshot(normalizers...), nil
}

func unmapped(gateway, code string) error {
	return domain.NewDomainError(domain.ErrorCodeEventUnmapped, "gateway event has no internal mapping").
		WithDetail("gateway", gateway).
		WithDetail("code", code)
}

func malformed(gateway, msg string, err error) error {
	var e *domain.DomainError
	if err != nil {
		e = domain.WrapError(domain.ErrorCodeValidationMalformedPayload, msg, err)
	} else {
		e = domain.NewDomainError(domain.ErrorCodeValidationMalformedPayload, msg)
	}
	return e.WithDetail("gateway", gateway)
}

func has(fields map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return false
		}
	}
	return true
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
