package auth

import "context"

type scopeContextKey struct{}

// ContextWithScope attaches the resolved scope to the request context.
// Downstream handlers read it back with ScopeFromContext instead of
// re-resolving raw headers themselves.
func ContextWithScope(ctx context.Context, scope ScopeContext) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, &scope)
}

// ScopeFromContext extracts the resolved scope from the context.
func ScopeFromContext(ctx context.Context) (ScopeContext, bool) {
	if ctx == nil {
		return ScopeContext{}, false
	}
	v, ok := ctx.Value(scopeContextKey{}).(*ScopeContext)
	if !ok || v == nil {
		return ScopeContext{}, false
	}
	return *v, true
}
