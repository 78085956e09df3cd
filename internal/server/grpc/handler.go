package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {

	var ip string
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		ip = p.Addr.String()
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
	}

	token, err := s.accounts.Login(ctx, services.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		ClientID: req.ClientID,
		IP:       ip,
	})

	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.countLogin(metrics.LoginFailure)
			return nil, status.Error(codes.Unauthenticated, "Incorrect username or password")
		}
		s.countLogin(metrics.LoginError)
		s.logger.Error(ctx, "login failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.countLogin(metrics.LoginSuccess)
	return &TokenResponse{AccessToken: token.AccessToken, TokenType: token.TokenType}, nil

}

func (s *GRPCServer) RenewToken(ctx context.Context, _ *Empty) (*TokenResponse, error) {

	accessToken, _ := ctx.Value(tokenKey).(string)

	token, err := s.accounts.RenewToken(ctx, accessToken)
	if err != nil {
		return nil, authStatus(err)
	}

	return &TokenResponse{AccessToken: token.AccessToken, TokenType: token.TokenType}, nil

}

func (s *GRPCServer) Me(ctx context.Context, _ *Empty) (*models.UserOut, error) {

	user, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	return user.Out(), nil

}

func (s *GRPCServer) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(result).Inc()
	}
}
