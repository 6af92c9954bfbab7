package ai

import "strings"

// NamespaceSeparator splits an optional provider namespace from the bare model
// name, as in "anthropic::claude-3-haiku-20240307".
const NamespaceSeparator = "::"

// ModelName is a raw, user-supplied model identifier. It is either a bare name
// ("gpt-4o-mini") or a namespaced one ("openai::gpt-4o-mini"). The value is
// immutable once parsed; use the accessors to read it.
type ModelName struct {
	raw       string
	namespace string
	name      string
	hasNS     bool
}

// ParseModelName splits raw on the first occurrence of [NamespaceSeparator].
// A name without the separator has no namespace. Parsing never fails: an empty
// namespace ("::gpt-4o") is kept as an explicit, empty namespace.
func ParseModelName(raw string) ModelName {
	namespace, name, found := strings.Cut(raw, NamespaceSeparator)
	if !found {
		return ModelName{raw: raw, name: raw}
	}
	return ModelName{raw: raw, namespace: namespace, name: name, hasNS: true}
}

// Namespace returns the namespace and whether one was present.
func (m ModelName) Namespace() (string, bool) {
	return m.namespace, m.hasNS
}

// Name returns the bare model name, without any namespace prefix.
func (m ModelName) Name() string {
	return m.name
}

// String returns the name exactly as it was supplied.
func (m ModelName) String() string {
	return m.raw
}
