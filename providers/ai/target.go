package ai

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
)

// ModelIden is a resolved model identity: the adapter that serves it and the
// model name that is sent on the wire.
type ModelIden struct {
	Kind AdapterKind `json:"kind"`
	Name string      `json:"name"`
}

// String renders the identity as "kind::name".
func (m ModelIden) String() string {
	return string(m.Kind) + NamespaceSeparator + m.Name
}

// Endpoint is the base URL a request is sent to. Adapters append their
// service path (e.g. "chat/completions") to it.
type Endpoint struct {
	BaseURL string `json:"base_url"`
}

// URL joins the base URL with a service path, inserting exactly one slash.
func (e Endpoint) URL(path string) string {
	return strings.TrimRight(e.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Header is a single HTTP header. Headers are kept as an ordered slice so the
// wire order is deterministic.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

/*
	AUTH
*/

// AuthKind discriminates the variants of AuthData.
type AuthKind int

const (
	AuthKindNone AuthKind = iota
	AuthKindFromEnv
	AuthKindKey
	AuthKindMultiKeys
	AuthKindRequestOverride
)

// MultiKeyAPIKey is the entry of a multi-key credential that adapters send as
// the provider API key.
const MultiKeyAPIKey = "api_key"

// AuthData describes how a request is authenticated. Build values with the
// AuthFromEnv, AuthKey, AuthMultiKeys, AuthRequestOverride and AuthNone
// constructors. The zero value is equivalent to AuthNone.
type AuthData struct {
	kind    AuthKind
	envName string
	key     string
	keys    map[string]string
	url     string
	headers []Header
}

// AuthFromEnv defers the credential to the named environment variable. The
// lookup happens when the service target is finalized, never earlier.
func AuthFromEnv(name string) AuthData {
	return AuthData{kind: AuthKindFromEnv, envName: name}
}

// AuthKey uses a single secret.
func AuthKey(secret string) AuthData {
	return AuthData{kind: AuthKindKey, key: secret}
}

// AuthMultiKeys uses a set of named secrets. The map is copied.
func AuthMultiKeys(keys map[string]string) AuthData {
	return AuthData{kind: AuthKindMultiKeys, keys: maps.Clone(keys)}
}

// AuthRequestOverride replaces the request URL (when url is non-empty) and
// sends only the given headers for authentication.
func AuthRequestOverride(url string, headers []Header) AuthData {
	return AuthData{kind: AuthKindRequestOverride, url: url, headers: slices.Clone(headers)}
}

// AuthNone sends no credential.
func AuthNone() AuthData {
	return AuthData{}
}

// Kind returns the variant.
func (a AuthData) Kind() AuthKind {
	return a.kind
}

// EnvName returns the variable name of an AuthFromEnv value.
func (a AuthData) EnvName() string {
	return a.envName
}

// Secret returns a named secret of an AuthMultiKeys value.
func (a AuthData) Secret(name string) (string, bool) {
	value, ok := a.keys[name]
	return value, ok
}

// Override returns the URL and headers of an AuthRequestOverride value.
func (a AuthData) Override() (string, []Header) {
	return a.url, slices.Clone(a.headers)
}

// APIKey returns the secret an adapter should send. It is empty for AuthNone
// and AuthRequestOverride. An AuthFromEnv value must be resolved first.
func (a AuthData) APIKey() (string, error) {
	switch a.kind {
	case AuthKindKey:
		return a.key, nil
	case AuthKindMultiKeys:
		value, ok := a.keys[MultiKeyAPIKey]
		if !ok {
			return "", fmt.Errorf("multi-key auth has no %q entry", MultiKeyAPIKey)
		}
		return value, nil
	case AuthKindFromEnv:
		return "", fmt.Errorf("auth from env %q was not resolved", a.envName)
	default:
		return "", nil
	}
}

// LookupFunc reads a configuration value such as an environment variable.
type LookupFunc func(name string) (string, bool)

// Resolve materializes an AuthFromEnv value through lookup (os.LookupEnv when
// nil). A missing or empty variable yields *APIKeyEnvNotFoundError. Other
// variants are returned unchanged.
func (a AuthData) Resolve(lookup LookupFunc) (AuthData, error) {
	if a.kind != AuthKindFromEnv {
		return a, nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(a.envName)
	if !ok || value == "" {
		return a, &APIKeyEnvNotFoundError{EnvName: a.envName}
	}
	return AuthKey(value), nil
}

// String describes the variant without revealing secrets.
func (a AuthData) String() string {
	switch a.kind {
	case AuthKindFromEnv:
		return "from_env(" + a.envName + ")"
	case AuthKindKey:
		return "key(***)"
	case AuthKindMultiKeys:
		return "multi_keys(" + strings.Join(slices.Sorted(maps.Keys(a.keys)), ",") + ")"
	case AuthKindRequestOverride:
		return "request_override(" + a.url + ")"
	default:
		return "none"
	}
}

// DefaultAuth is the credential used when no AuthResolver gives an opinion:
// the kind's conventional environment variable, or AuthNone for keyless kinds.
func DefaultAuth(kind AdapterKind) AuthData {
	if envKey := kind.DefaultEnvKey(); envKey != "" {
		return AuthFromEnv(envKey)
	}
	return AuthNone()
}

/*
	TARGET
*/

// ServiceTarget is everything needed to address one call: where to send it,
// how to authenticate and which model to ask for. It is built once per call.
type ServiceTarget struct {
	Endpoint Endpoint  `json:"endpoint"`
	Auth     AuthData  `json:"-"`
	Model    ModelIden `json:"model"`
}

// DefaultServiceTarget builds the target that the resolver chain produces
// when no stage has an opinion.
func DefaultServiceTarget(model ModelIden) ServiceTarget {
	return ServiceTarget{
		Endpoint: model.Kind.DefaultEndpoint(),
		Auth:     DefaultAuth(model.Kind),
		Model:    model,
	}
}
