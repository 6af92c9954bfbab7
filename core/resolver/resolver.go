package resolver

import (
	"context"
	"fmt"

	"github.com/leofalp/unillm/providers/ai"
)

// AdapterKindResolver picks an adapter kind for a model name. An empty kind
// means no opinion.
type AdapterKindResolver func(model ai.ModelName) (ai.AdapterKind, error)

// AuthResolver supplies credentials for a model. It may block and do I/O,
// for instance to fetch a short-lived token. A nil result means no opinion.
type AuthResolver func(ctx context.Context, model ai.ModelIden) (*ai.AuthData, error)

// ModelMapper rewrites the model identity, for example to expand an alias.
// A nil result keeps the model unchanged. It is applied exactly once.
type ModelMapper func(model ai.ModelIden) (*ai.ModelIden, error)

// ServiceTargetResolver has the final say over the assembled target. A nil
// result keeps it unchanged.
type ServiceTargetResolver func(ctx context.Context, target ai.ServiceTarget) (*ai.ServiceTarget, error)

// Chain holds the optional resolver stages. The zero value resolves every
// model through the default classification table and environment variables.
type Chain struct {
	KindResolver   AdapterKindResolver
	AuthResolver   AuthResolver
	ModelMapper    ModelMapper
	TargetResolver ServiceTargetResolver

	// Lookup reads credential variables; os.LookupEnv when nil.
	Lookup ai.LookupFunc
}

// Resolve runs the chain for rawModel. Every failure is an *ai.ResolveError
// naming the stage; an absent credential variable additionally wraps an
// *ai.APIKeyEnvNotFoundError.
func (c Chain) Resolve(ctx context.Context, rawModel string) (ai.ServiceTarget, error) {
	name := ai.ParseModelName(rawModel)
	fail := func(stage ai.ResolveStage, err error) (ai.ServiceTarget, error) {
		return ai.ServiceTarget{}, &ai.ResolveError{Stage: stage, Model: rawModel, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(ai.StageAdapterKind, err)
	}

	// 1. adapter kind
	kind, err := c.resolveKind(name)
	if err != nil {
		return fail(ai.StageAdapterKind, err)
	}
	model := ai.ModelIden{Kind: kind, Name: name.Name()}

	// 2. auth
	auth := ai.DefaultAuth(kind)
	authIsDefault := true
	if c.AuthResolver != nil {
		resolved, err := c.AuthResolver(ctx, model)
		if err != nil {
			return fail(ai.StageAuth, err)
		}
		if resolved != nil {
			auth = *resolved
			authIsDefault = false
		}
	}

	// 3. model mapping
	if c.ModelMapper != nil {
		mapped, err := c.ModelMapper(model)
		if err != nil {
			return fail(ai.StageModelMapper, err)
		}
		if mapped != nil {
			if !mapped.Kind.Valid() {
				return fail(ai.StageModelMapper, ai.ErrUnknownAdapterKind)
			}
			if mapped.Kind != model.Kind && authIsDefault {
				auth = ai.DefaultAuth(mapped.Kind)
			}
			model = *mapped
		}
	}

	// 4. service target
	target := ai.ServiceTarget{Endpoint: model.Kind.DefaultEndpoint(), Auth: auth, Model: model}
	if c.TargetResolver != nil {
		resolved, err := c.TargetResolver(ctx, target)
		if err != nil {
			return fail(ai.StageTarget, err)
		}
		if resolved != nil {
			if !resolved.Model.Kind.Valid() {
				return fail(ai.StageTarget, ai.ErrUnknownAdapterKind)
			}
			target = *resolved
		}
	}

	// materialize deferred credentials last
	target.Auth, err = target.Auth.Resolve(c.Lookup)
	if err != nil {
		return fail(ai.StageAuthMaterial, err)
	}

	return target, nil
}

func (c Chain) resolveKind(name ai.ModelName) (ai.AdapterKind, error) {
	if c.KindResolver != nil {
		kind, err := c.KindResolver(name)
		if err != nil {
			return "", err
		}
		if kind != "" {
			if !kind.Valid() {
				return "", ai.ErrUnknownAdapterKind
			}
			return kind, nil
		}
	}
	return ai.ClassifyModel(name), nil
}

// Then returns a ServiceTargetResolver running first and then next, each
// seeing the other's output. Nil resolvers are skipped.
func (first ServiceTargetResolver) Then(next ServiceTargetResolver) ServiceTargetResolver {
	if first == nil {
		return next
	}
	if next == nil {
		return first
	}
	return func(ctx context.Context, target ai.ServiceTarget) (*ai.ServiceTarget, error) {
		resolved, err := first(ctx, target)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			target = *resolved
		}
		return next(ctx, target)
	}
}

// StaticAuth returns an AuthResolver that always answers auth.
func StaticAuth(auth ai.AuthData) AuthResolver {
	return func(context.Context, ai.ModelIden) (*ai.AuthData, error) {
		return &auth, nil
	}
}

// Aliases returns a ModelMapper that replaces model names found in aliases.
// Targets may be namespaced ("anthropic::claude-3-5-haiku-latest") to switch
// kind as well; bare targets keep the current kind.
func Aliases(aliases map[string]string) ModelMapper {
	return func(model ai.ModelIden) (*ai.ModelIden, error) {
		replacement, ok := aliases[model.Name]
		if !ok {
			return nil, nil
		}
		name := ai.ParseModelName(replacement)
		mapped := ai.ModelIden{Kind: model.Kind, Name: name.Name()}
		if namespace, has := name.Namespace(); has {
			kind, known := ai.KindFromTag(namespace)
			if !known {
				return nil, fmt.Errorf("alias %q: %w %q", model.Name, ai.ErrUnknownAdapterKind, namespace)
			}
			mapped.Kind = kind
		}
		return &mapped, nil
	}
}
