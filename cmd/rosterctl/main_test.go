package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/config"
)

func TestParseRole(t *testing.T) {
	role, err := parseRole("TEACHER")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTeacher, role)

	_, err = parseRole("teacher")
	assert.Error(t, err)
}

func TestRunTokenIssuesVerifiableToken(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDevelopment, JWT: config.JWTConfig{Secret: "s3cret", Issuer: "edu-system"}}
	var out bytes.Buffer

	require.NoError(t, runToken(cfg, []string{"-user", "admin-1", "-role", "ADMIN", "-ttl", "10m"}, &out))

	verifier, err := auth.NewVerifier("s3cret", "edu-system")
	require.NoError(t, err)
	claims, err := verifier.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestRunTokenRefusesProduction(t *testing.T) {
	cfg := &config.Config{Env: config.EnvProduction, JWT: config.JWTConfig{Secret: "s3cret"}}
	err := runToken(cfg, []string{"-user", "admin-1"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "refusing")
}

func TestRunTokenRequiresUser(t *testing.T) {
	cfg := &config.Config{Env: config.EnvDevelopment, JWT: config.JWTConfig{Secret: "s3cret"}}
	assert.Error(t, runToken(cfg, nil, &bytes.Buffer{}))
}
