package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPhoneForDialog(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0771234567", want: "771234567"},
		{in: "94771234567", want: "771234567"},
		{in: "+94 77 123 4567", want: "771234567"},
		{in: "771234567", want: "771234567"},
		{in: "0112345678", wantErr: true},
		{in: "12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FormatPhoneForDialog(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialogGateway_SendReusesToken(t *testing.T) {
	var logins, sends int32
	var lastBody sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			atomic.AddInt32(&logins, 1)
			_ = json.NewEncoder(w).Encode(loginResponse{Status: "success", Token: "tok", Expiration: 3600})
		case "/sms":
			atomic.AddInt32(&sends, 1)
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
			_ = json.NewEncoder(w).Encode(sendResponse{Status: "success"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	gw := NewDialogGateway(DialogConfig{APIURL: srv.URL, Username: "u", Password: "p", Mask: "EstateHub"})

	require.NoError(t, gw.Send(context.Background(), "0771234567", "hello"))
	require.NoError(t, gw.Send(context.Background(), "0779876543", "again"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))
	assert.Equal(t, int32(2), atomic.LoadInt32(&sends))
	require.Len(t, lastBody.MSISDN, 1)
	assert.Equal(t, "779876543", lastBody.MSISDN[0].Mobile)
	assert.Equal(t, "EstateHub", lastBody.SourceAddress)
}

func TestDialogGateway_LoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loginResponse{Status: "failed", Comment: "bad credentials", ErrCode: "104"})
	}))
	defer srv.Close()

	gw := NewDialogGateway(DialogConfig{APIURL: srv.URL})
	err := gw.Send(context.Background(), "0771234567", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestDialogGateway_SendBulkSkipsInvalid(t *testing.T) {
	var recipients int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			_ = json.NewEncoder(w).Encode(loginResponse{Status: "success", Token: "tok", Expiration: 3600})
			return
		}
		var body sendRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		recipients = len(body.MSISDN)
		_ = json.NewEncoder(w).Encode(sendResponse{Status: "success"})
	}))
	defer srv.Close()

	gw := NewDialogGateway(DialogConfig{APIURL: srv.URL})
	sent, err := gw.SendBulk(context.Background(), []string{"0771234567", "bogus", "94712223333"}, "hi")

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, recipients)

	_, err = gw.SendBulk(context.Background(), []string{"bogus"}, "hi")
	assert.Error(t, err)
}

func TestDialogURLGateway_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("esmsqk"))
		if q.Get("list") != "771234567" {
			_, _ = w.Write([]byte("2001"))
			return
		}
		_, _ = w.Write([]byte("1\n"))
	}))
	defer srv.Close()

	gw := NewDialogURLGateway(DialogURLConfig{BaseURL: srv.URL, APIKey: "key"})

	assert.NoError(t, gw.Send(context.Background(), "0771234567", "hello"))

	err := gw.Send(context.Background(), "0712223333", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2001")

	assert.Error(t, gw.Send(context.Background(), "not a phone", "hello"))
}
