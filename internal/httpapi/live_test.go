package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-tracker/internal/progress"
)

func TestLive_StreamsUpdates(t *testing.T) {
	s := newTestServer(t)
	sess := s.register(t, "ana@example.com")
	token := sess.Token

	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	ctx := t.Context()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/topic/live?token=" + token
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://localhost:5173"}},
	})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	// Wait for the handler to register its subscription.
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Subscribers(sess.User.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("live subscription was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := s.do(t, http.MethodPatch, "/api/topic/"+arraysID+"/questions/"+q2, token, map[string]any{"field": "Done", "value": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	var view progress.TopicView
	if err := wsjson.Read(ctx, conn, &view); err != nil {
		t.Fatalf("wsjson.Read() error = %v", err)
	}
	if view.ID != arraysID || !view.Questions[1].Done {
		t.Errorf("live view = %+v", view)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestLive_RejectsBadToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/topic/live?token=garbage"
	_, resp, err := websocket.Dial(t.Context(), url, nil)
	if err == nil {
		t.Fatal("Dial() expected error")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}
