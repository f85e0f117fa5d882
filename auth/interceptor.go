package auth

import (
	"buddychat/domain"
	"buddychat/errors"
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// WithUserID stores the authenticated caller in ctx.
func WithUserID(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFrom returns the caller set by the interceptors.
func UserIDFrom(ctx context.Context) (domain.UserID, error) {
	userID, ok := ctx.Value(UserIDKey).(domain.UserID)
	if !ok || userID == "" {
		return "", errors.ErrUnauthenticated
	}
	return userID, nil
}

// Authenticate validates a "Bearer <token>" value and returns the subject.
func (t Tokens) Authenticate(header string) (domain.UserID, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errors.ErrUnauthenticated
	}
	claims, err := t.ValidateToken(token)
	if err != nil {
		return "", errors.ErrUnauthenticated
	}
	return domain.UserID(claims.UserID), nil
}

func (t Tokens) authenticateContext(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}
	userID, err := t.Authenticate(values[0])
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return WithUserID(ctx, userID), nil
}

// UnaryInterceptor handles JWT validation for incoming unary calls.
func (t Tokens) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		newCtx, err := t.authenticateContext(ctx)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// StreamInterceptor does the same for streams.
func (t Tokens) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		newCtx, err := t.authenticateContext(ss.Context())
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
	}
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
