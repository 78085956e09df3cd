package grpc

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"google.golang.org/grpc"
)

const serviceName = "notekeeper.AccountService"

const (
	methodLogin      = "/" + serviceName + "/Login"
	methodRenewToken = "/" + serviceName + "/RenewToken"
	methodMe         = "/" + serviceName + "/Me"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Empty struct{}

// AccountServer is implemented by GRPCServer.
type AccountServer interface {
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	RenewToken(context.Context, *Empty) (*TokenResponse, error)
	Me(context.Context, *Empty) (*models.UserOut, error)
}

func unaryHandler[Req any, Resp any](fullMethod string, call func(AccountServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var accountServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AccountServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(methodLogin, AccountServer.Login)},
		{MethodName: "RenewToken", Handler: unaryHandler(methodRenewToken, AccountServer.RenewToken)},
		{MethodName: "Me", Handler: unaryHandler(methodMe, AccountServer.Me)},
	},
	Streams: []grpc.StreamDesc{},
}

// AccountClient calls AccountService over a connection using the JSON codec.
type AccountClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountClient(cc grpc.ClientConnInterface) *AccountClient {
	return &AccountClient{cc: cc}
}

func (c *AccountClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	out := new(TokenResponse)
	if err := c.invoke(ctx, methodLogin, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountClient) RenewToken(ctx context.Context, opts ...grpc.CallOption) (*TokenResponse, error) {
	out := new(TokenResponse)
	if err := c.invoke(ctx, methodRenewToken, &Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountClient) Me(ctx context.Context, opts ...grpc.CallOption) (*models.UserOut, error) {
	out := new(models.UserOut)
	if err := c.invoke(ctx, methodMe, &Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AccountClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
