package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Response struct {
	StatusCode int
	Success    bool                   `json:"success"`
	Data       map[string]interface{} `json:"data"`
	Error      map[string]interface{} `json:"error"`
	RawData    []byte
}

func (r Response) GetString(key string) string {
	if val, ok := r.Data[key].(string); ok {
		return val
	}
	return ""
}

func (r Response) ErrorCode() float64 {
	if r.Error == nil {
		return 0
	}
	if code, ok := r.Error["code"].(float64); ok {
		return code
	}
	return 0
}

func MakeRequest(method, path string, body interface{}, token string) Response {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return Response{RawData: []byte(fmt.Sprintf("failed to marshal request body: %v", err))}
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, apiURL+path, reqBody)
	if err != nil {
		return Response{RawData: []byte(fmt.Sprintf("failed to create request: %v", err))}
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Response{RawData: []byte(fmt.Sprintf("request failed: %v", err))}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	out := Response{StatusCode: resp.StatusCode, RawData: raw}
	_ = json.Unmarshal(raw, &out)
	return out
}

// IssueToken signs a token the way the identity provider would. The test
// server must run with JWT_SECRET matching TEST_JWT_SECRET (default
// "change-me", same as the sample config).
func IssueToken(userID uuid.UUID, role string) string {
	secret := os.Getenv("TEST_JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return ""
	}
	return signed
}
