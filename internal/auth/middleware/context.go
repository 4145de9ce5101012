package auth

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated identity (candidate display name or
// grader username) on the context.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns the identity set by the JWT middleware, or "".
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}
