// ABOUTME: Authenticating round tripper for backend calls
// ABOUTME: Attaches the bearer token and refreshes it once when a request comes back 401

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/markalston/ticketdesk/internal/auth"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader correlates a logical request across its original and retried attempts
const RequestIDHeader = "X-Request-ID"

// RefreshFunc exchanges a refresh token for a new token pair
type RefreshFunc func(ctx context.Context, refreshToken string) (*TokenPair, error)

// Transport is an http.RoundTripper that authenticates requests from Store.
//
// A 401 response is retried at most once per request, after exchanging the
// stored refresh token for a new access token. When that exchange fails the
// store is cleared, OnSessionExpired is called, and the original 401 response
// is returned to the caller.
//
// Concurrent requests retry independently. Refreshes presenting the same
// refresh token are coalesced into one backend call.
type Transport struct {
	Base             http.RoundTripper
	Store            auth.TokenStore
	Refresh          RefreshFunc
	OnSessionExpired func(error)

	group    singleflight.Group
	expireMu sync.Mutex
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	access, _ := t.Store.Access()
	return t.send(req, requestID, access, 0)
}

// send transmits one attempt. attempt is 0 for the original request and 1
// for the single retry; a 401 on attempt 1 is final.
func (t *Transport) send(req *http.Request, requestID, access string, attempt int) (*http.Response, error) {
	out, err := prepare(req, requestID, access, attempt)
	if err != nil {
		return nil, err
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || attempt > 0 {
		return resp, nil
	}

	refreshToken, ok := t.Store.Refresh()
	if !ok {
		return resp, nil
	}
	if !replayable(req) {
		slog.Debug("Not retrying request with a one-shot body", "request_id", requestID, "path", req.URL.Path)
		return resp, nil
	}

	// Another request may have refreshed while this one was in flight
	if current, ok := t.Store.Access(); ok && current != access {
		slog.Debug("Retrying with token refreshed by another request", "request_id", requestID)
		discard(resp)
		return t.send(req, requestID, current, attempt+1)
	}

	pair, err := t.refresh(req.Context(), refreshToken)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			discard(resp)
			return nil, ctxErr
		}
		t.expire(refreshToken, err)
		return resp, nil
	}

	slog.Debug("Retrying with refreshed token", "request_id", requestID, "path", req.URL.Path)
	discard(resp)
	return t.send(req, requestID, pair.AccessToken, attempt+1)
}

// refresh exchanges refreshToken and stores the result. The exchange runs
// detached from ctx so that one caller giving up does not fail the others
// waiting on the same refresh.
func (t *Transport) refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ch := t.group.DoChan(refreshToken, func() (any, error) {
		slog.Info("Refreshing access token")
		pair, err := t.Refresh(context.WithoutCancel(ctx), refreshToken)
		if err != nil {
			return nil, err
		}
		if pair.AccessToken == "" {
			return nil, errors.New("refresh response has no access token")
		}

		next := pair.RefreshToken
		if next == "" {
			next = refreshToken
		}
		if err := t.Store.Set(pair.AccessToken, next); err != nil {
			slog.Warn("Failed to persist refreshed tokens", "error", err)
		}
		return pair, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, res.Err)
		}
		return res.Val.(*TokenPair), nil
	}
}

// expire ends the session that presented refreshToken. Waiters on the same
// failed refresh all get here; only the first one still finds that token
// in the store, so the clear and the hook run once.
func (t *Transport) expire(refreshToken string, err error) {
	t.expireMu.Lock()
	defer t.expireMu.Unlock()

	if current, ok := t.Store.Refresh(); !ok || current != refreshToken {
		return
	}
	slog.Warn("Session expired", "error", err)
	if clearErr := t.Store.Clear(); clearErr != nil {
		slog.Error("Failed to clear session", "error", clearErr)
	}
	if t.OnSessionExpired != nil {
		t.OnSessionExpired(err)
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// prepare clones req for one attempt. Retries read a fresh body from GetBody.
func prepare(req *http.Request, requestID, access string, attempt int) (*http.Request, error) {
	out := req.Clone(req.Context())
	if attempt > 0 && req.Body != nil && req.Body != http.NoBody {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
	}

	out.Header.Set(RequestIDHeader, requestID)
	if access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	} else {
		out.Header.Del("Authorization")
	}
	return out, nil
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func discard(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}
