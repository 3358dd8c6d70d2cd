// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the planner service.
//
// The auth middleware extracts a bearer token from the Authorization
// header, validates it against the configured AuthProvider, and stores the
// resulting AuthInfo in the Gin context for downstream handlers. With the
// default NopProvider every request authenticates as "local-user", so the
// service and CLI work without any auth infrastructure; deployments that
// need real auth plug in a StaticTokenProvider or their own provider.
package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrUnauthorized is returned by providers for invalid tokens.
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo identifies the authenticated caller.
type AuthInfo struct {
	UserID string
	Roles  []string
}

// AuthProvider validates bearer tokens.
type AuthProvider interface {
	// Validate checks the token and returns the caller's identity.
	// An empty token is passed through; providers decide whether to
	// accept it.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopProvider accepts every request as a local admin user.
type NopProvider struct{}

func (NopProvider) Validate(context.Context, string) (*AuthInfo, error) {
	return &AuthInfo{UserID: "local-user", Roles: []string{"admin"}}, nil
}

// StaticTokenProvider accepts exactly one pre-shared token.
type StaticTokenProvider struct {
	Token string
}

func (p StaticTokenProvider) Validate(_ context.Context, token string) (*AuthInfo, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(p.Token)) != 1 {
		return nil, ErrUnauthorized
	}
	return &AuthInfo{UserID: "token-user", Roles: []string{"admin"}}, nil
}

// authInfoKey is the context key for storing AuthInfo.
const authInfoKey = "aleutian_auth_info"

// SetAuthInfo stores the authenticated user info in the Gin context.
func SetAuthInfo(c *gin.Context, info *AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo retrieves the authenticated user info, or nil when the
// request was not authenticated.
func GetAuthInfo(c *gin.Context) *AuthInfo {
	if info, exists := c.Get(authInfoKey); exists {
		if authInfo, ok := info.(*AuthInfo); ok {
			return authInfo
		}
	}
	return nil
}

// AuthMiddleware authenticates requests with the given provider.
//
// The bearer token is taken from "Authorization: Bearer <token>"; a
// missing or malformed header yields an empty token. Validation failures
// abort the request with 401.
//
// Thread Safety: The returned middleware is safe for concurrent use.
func AuthMiddleware(provider AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		authInfo, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		SetAuthInfo(c, authInfo)
		c.Next()
	}
}

// extractBearerToken parses the Authorization header. The "Bearer" prefix
// is case-insensitive per RFC 7235; anything else yields "".
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
