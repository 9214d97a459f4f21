package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

const (
	Username      = "patient@example.com"
	Password      = "secret"
	ClientId      = "client-id"
	ClientSecret  = "client-secret"
	AccessToken   = "diasend-token"
	UserId        = "a1b2c3"
	SessionCookie = "PHPSESSID"
	SessionId     = "session-1234"
	TokenEndpoint = "/oauth2/token"
	DataEndpoint  = "/patient/data"
	LoginEndpoint = "/diasend/includes/account/login.php"
)

type DiasendServer struct {
	*httptest.Server

	mu                sync.Mutex
	tokenRequests     int
	dataRequests      []*http.Request
	patientData       []byte
	patientDataStatus int
	pumpSettingsPage  []byte
	tokenExpiresIn    int
}

func (d *DiasendServer) SetPatientData(body []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patientData = body
	d.patientDataStatus = http.StatusOK
}

func (d *DiasendServer) SetPatientDataStatus(status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patientDataStatus = status
}

func (d *DiasendServer) SetPumpSettingsPage(body []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pumpSettingsPage = body
}

// SetTokenExpiresIn sets the lifetime of issued tokens in seconds. Zero leaves out expires_in.
func (d *DiasendServer) SetTokenExpiresIn(seconds int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokenExpiresIn = seconds
}

func (d *DiasendServer) TokenRequests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tokenRequests
}

func (d *DiasendServer) DataRequests() []*http.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*http.Request(nil), d.dataRequests...)
}

func ServerStub() *DiasendServer {
	diasend := &DiasendServer{
		patientData:       []byte("[]"),
		patientDataStatus: http.StatusOK,
		tokenExpiresIn:    3600,
	}
	diasend.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		diasend.mu.Lock()
		defer diasend.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == TokenEndpoint:
			diasend.tokenRequests++
			id, secret, ok := r.BasicAuth()
			if !ok || id != ClientId || secret != ClientSecret {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "password" ||
				r.PostForm.Get("username") != Username || r.PostForm.Get("password") != Password {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			token := map[string]interface{}{
				"access_token": AccessToken,
				"token_type":   "Bearer",
			}
			if diasend.tokenExpiresIn > 0 {
				token["expires_in"] = diasend.tokenExpiresIn
			}
			body, _ := json.Marshal(token)
			w.Header().Add("content-type", "application/json")
			w.Write(body)
		case r.Method == http.MethodGet && r.URL.Path == DataEndpoint:
			diasend.dataRequests = append(diasend.dataRequests, r.Clone(r.Context()))
			if r.Header.Get("Authorization") != "Bearer "+AccessToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if diasend.patientDataStatus != http.StatusOK {
				w.WriteHeader(diasend.patientDataStatus)
				return
			}
			w.Header().Add("content-type", "application/json")
			w.Write(diasend.patientData)
		case r.Method == http.MethodPost && r.URL.Path == LoginEndpoint:
			if err := r.ParseForm(); err != nil || r.PostForm.Get("user") != Username || r.PostForm.Get("passwd") != Password {
				w.Header().Set("Location", "/diasend/login.php?error=1")
				w.WriteHeader(http.StatusFound)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: SessionId, Path: "/"})
			w.Header().Set("Location", fmt.Sprintf("/reports/%s/summary", UserId))
			w.WriteHeader(http.StatusFound)
		case r.Method == http.MethodGet && r.URL.Path == fmt.Sprintf("/reports/%s/insulin/pump-settings", UserId):
			if c, err := r.Cookie(SessionCookie); err != nil || c.Value != SessionId {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Add("content-type", "text/html")
			w.Write(diasend.pumpSettingsPage)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return diasend
}
