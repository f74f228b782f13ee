// Package mocks provides shared test doubles for the application interfaces.
//
// Store, service and queue mocks embed testify's mock.Mock and are configured
// with On(...).Return(...). MockTokenService uses function fields instead,
// with fixed default return values when no function is set:
//
//	tokens := &mocks.MockTokenService{
//	    ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
//	        return &auth.Claims{Email: "john@example.com"}, nil
//	    },
//	}
package mocks
