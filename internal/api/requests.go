// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/validation"
)

// TimezoneHeader carries the listener's IANA timezone when ?tz= is absent.
const TimezoneHeader = "X-Timezone"

// Defaults for the plays/recent endpoint.
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

var (
	errMissingToken  = errors.New("missing bearer token")
	errInvalidUserID = errors.New("userID must be 1-128 printable characters")
)

// userRequest validates the {userID} path segment.
type userRequest struct {
	UserID string `validate:"required,max=128,printascii"`
}

// timezoneRequest validates the resolved timezone name.
type timezoneRequest struct {
	Timezone string `validate:"required,iana_tz"`
}

// RecentPlaysRequest is the validated query of GET plays/recent.
type RecentPlaysRequest struct {
	Limit int `validate:"min=1,max=500"`
}

// TopTracksRequest is the validated query of GET top-tracks.
type TopTracksRequest struct {
	TimeRange string `validate:"required,time_range"`
	Limit     int
}

// JourneyRequest is the validated query of GET journey.
type JourneyRequest struct {
	MaxPerBadge int `validate:"min=0,max=50"`
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" || len(userID) > maxUserIDLength {
		return errInvalidUserID
	}
	if err := validation.ValidateStruct(&userRequest{UserID: userID}); err != nil {
		return errInvalidUserID
	}
	return nil
}

// bearerToken extracts the upstream access token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

// resolveLocation picks ?tz=, then X-Timezone, then fallback.
func resolveLocation(r *http.Request, fallback string) (*time.Location, string, error) {
	name := strings.TrimSpace(r.URL.Query().Get("tz"))
	if name == "" {
		name = strings.TrimSpace(r.Header.Get(TimezoneHeader))
	}
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = "UTC"
	}

	if err := validation.ValidateStruct(&timezoneRequest{Timezone: name}); err != nil {
		return nil, "", err
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "", err
	}
	return loc, name, nil
}

// queryInt reads an integer query parameter. Missing or non-numeric values
// yield def.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// topTracksRequest parses and validates the top-tracks query.
func topTracksRequest(r *http.Request) (TopTracksRequest, error) {
	req := TopTracksRequest{
		TimeRange: r.URL.Query().Get("time_range"),
		Limit:     queryInt(r, "limit", 0),
	}
	if req.TimeRange == "" {
		req.TimeRange = string(models.MediumTerm)
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return req, err
	}
	return req, nil
}

// validationDetails extracts the API details map from a validation error.
func validationDetails(err error) map[string]interface{} {
	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		return ve.Details()
	}
	return map[string]interface{}{"reason": err.Error()}
}
