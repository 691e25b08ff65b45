package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/vovakirdan/duochat/internal/proto"
	transporthttp "github.com/vovakirdan/duochat/internal/transport/http"
)

// apiClient is a thin wrapper over the server's REST endpoints.
type apiClient struct {
	baseURL string
	token   string
	http    *stdhttp.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &stdhttp.Client{Timeout: 15 * time.Second},
	}
}

func (c *apiClient) register(username, displayName, password string) (string, error) {
	var resp transporthttp.AuthResponse
	err := c.do(stdhttp.MethodPost, "/api/register", transporthttp.RegisterRequest{
		Username:    username,
		DisplayName: displayName,
		Password:    password,
	}, &resp)
	return resp.Token, err
}

func (c *apiClient) login(username, password string) (string, error) {
	var resp transporthttp.AuthResponse
	err := c.do(stdhttp.MethodPost, "/api/login", transporthttp.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	return resp.Token, err
}

func (c *apiClient) users() ([]proto.UserData, error) {
	var out []proto.UserData
	err := c.do(stdhttp.MethodGet, "/api/messages/users", nil, &out)
	return out, err
}

func (c *apiClient) history(peerID int64) ([]proto.MessageData, error) {
	var out []proto.MessageData
	err := c.do(stdhttp.MethodGet, fmt.Sprintf("/api/messages/%d", peerID), nil, &out)
	return out, err
}

func (c *apiClient) send(peerID int64, text string) (proto.MessageData, error) {
	var out proto.MessageData
	err := c.do(stdhttp.MethodPost, fmt.Sprintf("/api/messages/send/%d", peerID),
		transporthttp.SendRequest{Text: text}, &out)
	return out, err
}

func (c *apiClient) deleteMessage(messageID string) error {
	return c.do(stdhttp.MethodDelete, "/api/messages/"+messageID, nil, nil)
}

func (c *apiClient) addReaction(messageID, emoji string) ([]proto.ReactionData, error) {
	var out []proto.ReactionData
	err := c.do(stdhttp.MethodPost, "/api/messages/"+messageID+"/reactions",
		transporthttp.ReactionRequest{Emoji: emoji}, &out)
	return out, err
}

func (c *apiClient) removeReaction(messageID, reactionID string) ([]proto.ReactionData, error) {
	var out []proto.ReactionData
	err := c.do(stdhttp.MethodDelete, "/api/messages/"+messageID+"/reactions/"+reactionID, nil, &out)
	return out, err
}

func (c *apiClient) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := stdhttp.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr transporthttp.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// tokenIdentity extracts the user ID and display name from the JWT payload.
// The client trusts its own server here, so the signature is not checked.
func tokenIdentity(token string) (int64, string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, "", fmt.Errorf("malformed token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("decode token payload: %w", err)
	}
	var claims struct {
		UserID      int64  `json:"user_id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, "", fmt.Errorf("parse token payload: %w", err)
	}
	if claims.UserID == 0 {
		return 0, "", fmt.Errorf("token carries no user id")
	}
	return claims.UserID, claims.DisplayName, nil
}
