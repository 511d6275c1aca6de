package auth_test

import (
	"testing"

	auth "github.com/quotable-dev/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterPayload() auth.RegisterPayload {
	return auth.RegisterPayload{
		Email:     "alice@example.com",
		Username:  "alice",
		Password:  "Corr3ct!horse",
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

func TestRegisterPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*auth.RegisterPayload)
		wantErr bool
	}{
		{
			name:    "valid payload",
			mutate:  func(p *auth.RegisterPayload) {},
			wantErr: false,
		},
		{
			name:    "missing email",
			mutate:  func(p *auth.RegisterPayload) { p.Email = "" },
			wantErr: true,
		},
		{
			name:    "malformed email",
			mutate:  func(p *auth.RegisterPayload) { p.Email = "not-an-email" },
			wantErr: true,
		},
		{
			name:    "email too short",
			mutate:  func(p *auth.RegisterPayload) { p.Email = "a@b.c" },
			wantErr: true,
		},
		{
			name:    "missing username",
			mutate:  func(p *auth.RegisterPayload) { p.Username = "" },
			wantErr: true,
		},
		{
			name:    "username too short",
			mutate:  func(p *auth.RegisterPayload) { p.Username = "ab" },
			wantErr: true,
		},
		{
			name:    "missing first name",
			mutate:  func(p *auth.RegisterPayload) { p.FirstName = "" },
			wantErr: true,
		},
		{
			name:    "missing last name",
			mutate:  func(p *auth.RegisterPayload) { p.LastName = "" },
			wantErr: true,
		},
		{
			name:    "password too short",
			mutate:  func(p *auth.RegisterPayload) { p.Password = "S1!a" },
			wantErr: true,
		},
		{
			name:    "password missing uppercase",
			mutate:  func(p *auth.RegisterPayload) { p.Password = "weak1!pass" },
			wantErr: true,
		},
		{
			name:    "password missing digit",
			mutate:  func(p *auth.RegisterPayload) { p.Password = "Weakpass!" },
			wantErr: true,
		},
		{
			name:    "password missing special character",
			mutate:  func(p *auth.RegisterPayload) { p.Password = "Weakpass1" },
			wantErr: true,
		},
		{
			name: "repeated run is advisory only",
			// "aaa" trips the strength score but not the hard policy
			mutate:  func(p *auth.RegisterPayload) { p.Password = "Aaa1!aaaZ" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validRegisterPayload()
			tt.mutate(&payload)

			err := payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, auth.IsValidationError(err),
					"expected a validation category error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterPayloadValidateSurfacesPasswordReason(t *testing.T) {
	payload := validRegisterPayload()
	payload.Password = "weak1!pass"

	err := payload.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must contain an uppercase letter")
}
