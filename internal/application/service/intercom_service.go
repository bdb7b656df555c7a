package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ringbridge/internal/config"
	"ringbridge/internal/infrastructure/monitoring"
	"ringbridge/pkg/errors"
	"ringbridge/pkg/logger"
)

// ringOAuthClientID is the client the Ring OAuth endpoint expects for
// refresh-token exchanges.
const ringOAuthClientID = "ring_official_android"

// IntercomService is the downstream consumer of cached credentials: it
// exchanges the refresh credential for an access token and fires the
// intercom unlock request.
type IntercomService interface {
	OpenDoor(ctx context.Context, email string) error
}

type intercomService struct {
	broker     AuthBrokerService
	oauthURL   string
	apiURL     string
	httpClient *http.Client
	metrics    *monitoring.Metrics
	logger     logger.Logger
}

// NewIntercomService creates the unlock consumer.
func NewIntercomService(broker AuthBrokerService, cfg *config.Config, metrics *monitoring.Metrics, log logger.Logger) IntercomService {
	return &intercomService{
		broker:     broker,
		oauthURL:   cfg.Ring.OAuthURL,
		apiURL:     strings.TrimRight(cfg.Ring.APIURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		metrics:    metrics,
		logger:     log.WithComponent("intercom"),
	}
}

// OpenDoor unlocks the first intercom on the account.
func (s *intercomService) OpenDoor(ctx context.Context, email string) error {
	refreshToken, ok := s.broker.RefreshCredential(email)
	if !ok {
		return errors.ErrNotAuthenticated(email)
	}

	s.logger.Info(ctx, "Opening door", logger.String("email", email))

	accessToken, err := s.exchangeToken(ctx, refreshToken)
	if err != nil {
		s.recordUnlock("error")
		return err
	}

	intercomID, err := s.findIntercom(ctx, accessToken)
	if err != nil {
		s.recordUnlock("error")
		return err
	}

	unlockURL := fmt.Sprintf("%s/intercom/v1/intercoms/%d/doorbot_unlock", s.apiURL, intercomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, unlockURL, nil)
	if err != nil {
		s.recordUnlock("error")
		return errors.ErrServerError("failed to build unlock request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.recordUnlock("error")
		return errors.ErrServerError("unlock request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.recordUnlock("error")
		return errors.ErrServerError(fmt.Sprintf("unlock request returned status %d", resp.StatusCode))
	}

	s.recordUnlock("ok")
	s.logger.Info(ctx, "Door opened", logger.String("email", email))
	return nil
}

// exchangeToken trades the refresh credential for a short-lived access token.
func (s *intercomService) exchangeToken(ctx context.Context, refreshToken string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     ringOAuthClientID,
		"scope":         "client",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.ErrServerError("failed to build token request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.ErrServerError("token exchange failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.ErrServerError(fmt.Sprintf("token exchange returned status %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.ErrServerError("failed to decode token response").WithCause(err)
	}
	if payload.AccessToken == "" {
		return "", errors.ErrServerError("token exchange yielded no access token")
	}
	return payload.AccessToken, nil
}

// findIntercom returns the id of the first intercom on the account.
func (s *intercomService) findIntercom(ctx context.Context, accessToken string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/clients_api/ring_devices", nil)
	if err != nil {
		return 0, errors.ErrServerError("failed to build devices request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, errors.ErrServerError("devices request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.ErrServerError(fmt.Sprintf("devices request returned status %d", resp.StatusCode))
	}

	var payload struct {
		Other []struct {
			ID   int64  `json:"id"`
			Kind string `json:"kind"`
		} `json:"other"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.ErrServerError("failed to decode devices response").WithCause(err)
	}

	for _, device := range payload.Other {
		if strings.Contains(device.Kind, "intercom") {
			return device.ID, nil
		}
	}
	return 0, errors.ErrNotFound("no intercom on this account")
}

func (s *intercomService) recordUnlock(result string) {
	if s.metrics != nil {
		s.metrics.UnlockRequests.WithLabelValues(result).Inc()
	}
}
