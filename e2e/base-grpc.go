package e2e

import (
	"buddychat/auth"
	"buddychat/client"
	"buddychat/domain"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
	tokens auth.Tokens
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR is not set")
	}
	s.tokens, err = auth.NewTokens(s.Config.AuthSecret)
	s.Require().NoError(err, "E2E_AUTH_SECRET must match the server AUTH_SECRET")
}

// Dial connects as user with logging, colors, and JSON debugging
func (s *BaseGrpcSuite) Dial(t *testing.T, name string, user domain.UserID) *client.Client {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s (%s) ======", name, user)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	token, err := s.tokens.GenerateToken(string(user), time.Hour)
	s.Require().NoError(err)

	// 2. Create the client with a Unary Interceptor for logging
	c, err := client.Dial(s.Config.ServerAddr, token,
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, asJSON(req))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, asJSON(reply))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.ServerAddr)
	return c
}

// As runs fn with a client authenticated as user within a contextual test step
func (s *BaseGrpcSuite) As(name string, user domain.UserID, fn func(ctx context.Context, c *client.Client)) {
	c := s.Dial(s.T(), name, user)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fn(ctx, c)
}

func asJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
