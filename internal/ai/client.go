package ai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultGigaChatModel    = "GigaChat-Pro"
	DefaultGigaChatTokenURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	DefaultGigaChatChatURL  = "https://gigachat.devices.sberbank.ru/api/v1/chat/completions"
	gigaChatScope           = "GIGACHAT_API_PERS"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GigaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type GigaChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type GigaChatConfig struct {
	AuthKey  string
	Model    string
	TokenURL string
	ChatURL  string
	// SkipTLSVerify is needed on hosts without the Russian root CA installed.
	SkipTLSVerify bool
	HTTPClient    *http.Client
}

// GigaChatClient exchanges the auth key for an access token, then asks for a completion.
type GigaChatClient struct {
	authKey  string
	model    string
	tokenURL string
	chatURL  string
	http     *http.Client
}

func NewGigaChatClient(cfg GigaChatConfig) (*GigaChatClient, error) {
	if cfg.AuthKey == "" {
		return nil, configError(ProviderGigaChat, ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGigaChatModel
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultGigaChatTokenURL
	}
	if cfg.ChatURL == "" {
		cfg.ChatURL = DefaultGigaChatChatURL
	}

	client := cfg.HTTPClient
	if client == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.SkipTLSVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		client = &http.Client{Transport: tr}
	}

	return &GigaChatClient{
		authKey:  cfg.AuthKey,
		model:    cfg.Model,
		tokenURL: cfg.TokenURL,
		chatURL:  cfg.ChatURL,
		http:     client,
	}, nil
}

func (gg_cl *GigaChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	token, err := gg_cl.accessToken(ctx)
	if err != nil {
		return "", err
	}

	reqBody := GigaChatRequest{
		Model:    gg_cl.model,
		Messages: []Message{{Role: "user", Content: prompt}},
		Stream:   false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("chat marshal failed: %w", err)
	}

	chatHttpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, gg_cl.chatURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("chat request create failed: %w", err)
	}
	chatHttpReq.Header.Set("Authorization", "Bearer "+token)
	chatHttpReq.Header.Set("Content-Type", "application/json")
	chatHttpReq.Header.Set("RqUID", uuid.NewString())

	resp, err := gg_cl.http.Do(chatHttpReq)
	if err != nil {
		return "", wrapError(ProviderGigaChat, fmt.Errorf("chat request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", statusError(ProviderGigaChat, resp.StatusCode, fmt.Errorf("chat http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var chatResp GigaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", wrapError(ProviderGigaChat, fmt.Errorf("chat decode failed: %w", err))
	}

	if len(chatResp.Choices) == 0 {
		return "", &Error{Kind: KindService, Provider: ProviderGigaChat, Err: errors.New("no choices in response")}
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (gg_cl *GigaChatClient) accessToken(ctx context.Context) (string, error) {
	tokenForm := url.Values{}
	tokenForm.Set("scope", gigaChatScope)

	tokenHttpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, gg_cl.tokenURL, strings.NewReader(tokenForm.Encode()))
	if err != nil {
		return "", fmt.Errorf("token request create failed: %w", err)
	}

	tokenHttpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenHttpReq.Header.Set("RqUID", uuid.NewString())
	tokenHttpReq.Header.Set("Authorization", "Basic "+gg_cl.authKey)

	tokenResp, err := gg_cl.http.Do(tokenHttpReq)
	if err != nil {
		return "", wrapError(ProviderGigaChat, fmt.Errorf("token request failed: %w", err))
	}
	defer tokenResp.Body.Close()

	if tokenResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(tokenResp.Body, 4096))
		return "", statusError(ProviderGigaChat, tokenResp.StatusCode, fmt.Errorf("token http %d: %s", tokenResp.StatusCode, strings.TrimSpace(string(body))))
	}

	var tokenData struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokenData); err != nil {
		return "", wrapError(ProviderGigaChat, fmt.Errorf("token decode failed: %w", err))
	}
	if tokenData.AccessToken == "" {
		return "", configError(ProviderGigaChat, errors.New("token response has no access_token"))
	}

	return tokenData.AccessToken, nil
}
