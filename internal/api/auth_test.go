package api

import (
	"net/http"
	"testing"
)

func TestLogin_Success(t *testing.T) {
	h, _ := setupHandler(t)

	rr := do(h, http.MethodPost, "/api/login", `{"username":"admin","password":"password"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp loginResponse
	decodeBody(t, rr, &resp)
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Token == "" {
		t.Error("missing token")
	}
	if resp.Username != "admin" {
		t.Errorf("username = %q", resp.Username)
	}
	if resp.Message == "" {
		t.Error("missing message")
	}
}

func TestLogin_TokensDiffer(t *testing.T) {
	h, _ := setupHandler(t)

	var first, second loginResponse
	decodeBody(t, do(h, http.MethodPost, "/api/login", `{"username":"admin","password":"password"}`), &first)
	decodeBody(t, do(h, http.MethodPost, "/api/login", `{"username":"admin","password":"password"}`), &second)
	if first.Token == second.Token {
		t.Errorf("tokens should be unique, both %q", first.Token)
	}
}

func TestLogin_Rejected(t *testing.T) {
	h, _ := setupHandler(t)

	bodies := []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"root","password":"password"}`,
		`{"username":"","password":""}`,
		`{}`,
		`not json`,
		"",
	}
	for _, body := range bodies {
		rr := do(h, http.MethodPost, "/api/login", body)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("body %q: status = %d, want 401", body, rr.Code)
			continue
		}
		var resp loginResponse
		decodeBody(t, rr, &resp)
		if resp.Success || resp.Token != "" {
			t.Errorf("body %q: resp = %+v", body, resp)
		}
		if resp.Message == "" {
			t.Errorf("body %q: missing message", body)
		}
	}
}

func TestCredentials_EmptyUsernameNeverMatches(t *testing.T) {
	c := Credentials{}
	if c.match("", "") {
		t.Error("empty credentials matched")
	}
}
