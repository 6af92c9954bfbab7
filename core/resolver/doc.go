// Package resolver turns a raw model name into an ai.ServiceTarget.
//
// A [Chain] runs four optional stages in a fixed order:
//
//  1. KindResolver picks the adapter kind (default: ai.ClassifyModel).
//  2. AuthResolver supplies credentials (default: the kind's env variable).
//  3. ModelMapper rewrites the model identity once.
//  4. TargetResolver may replace the whole target.
//
// Each stage is a plain func; returning nil (or an empty kind) means "no
// opinion" and the default is kept. AuthFromEnv credentials are looked up
// only after the last stage, so a TargetResolver can still swap them out.
//
// Stages may be called concurrently by parallel requests. Any caching they
// do is their own responsibility.
package resolver
