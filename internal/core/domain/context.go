package domain

import "context"

type ctxKey int

const (
	subjectKey ctxKey = iota
	actorKey
)

// WithSubject returns a copy of ctx carrying the verified token subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFromContext returns the verified token subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok && s != ""
}

// WithActor returns a copy of ctx carrying the user loaded for this request.
func WithActor(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

// ActorFromContext returns the user loaded by the permission middleware, if any.
func ActorFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(actorKey).(*User)
	return u, ok && u != nil
}
