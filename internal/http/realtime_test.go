package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tazhibayda/townboat/internal/realtime"
)

type frames struct {
	t  *testing.T
	ws *websocket.Conn
}

// next reads frames until one satisfies ok.
func (f frames) next(ok func(*realtime.Outbound) bool) realtime.Outbound {
	f.t.Helper()
	_ = f.ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var o realtime.Outbound
		if err := f.ws.ReadJSON(&o); err != nil {
			f.t.Fatalf("read frame: %v", err)
		}
		if ok(&o) {
			return o
		}
	}
}

func (f frames) send(raw string) {
	f.t.Helper()
	if err := f.ws.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		f.t.Fatalf("write frame: %v", err)
	}
}

func Test_Realtime_Listen_Upvote_Search(t *testing.T) {
	env := newTestEnv(t)
	defer env.Close()
	owner, _ := env.signUp("owner@e.com", "Joe")
	voter, voterID := env.signUp("voter@e.com", "Ann")
	admin := env.promote("owner@e.com")

	w := env.do("POST", "/api/businesses", `{"name":"Joe's Cafe","category":"food","town":"Springfield"}`, owner.Access)
	var biz struct{ ID string }
	decode(t, w, &biz)
	if w := env.do("POST", "/api/admin/businesses/"+biz.ID+"/status", `{"status":"approved"}`, admin.Access); w.Code != http.StatusNoContent {
		t.Fatalf("approve: %d", w.Code)
	}

	srv := httptest.NewServer(env.Router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/realtime?access_token=" + voter.Access
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	f := frames{t: t, ws: ws}

	auth := f.next(func(o *realtime.Outbound) bool { return o.Type == "auth" })
	if auth.User == nil || auth.User.ID != voterID {
		t.Fatalf("auth frame: %+v", auth)
	}

	f.send(`{"type":"listen","collection":"businesses","filters":{"town":"Springfield"}}`)
	v := f.next(func(o *realtime.Outbound) bool { return o.Type == "view" && o.View.State == "ready" })
	if len(v.View.Items) != 1 || v.View.Items[0].ID != biz.ID || v.View.Items[0].Active {
		t.Fatalf("initial view: %+v", v.View)
	}

	f.send(`{"type":"action","action":"upvote","collection":"businesses","id":"` + biz.ID + `"}`)
	res := f.next(func(o *realtime.Outbound) bool { return o.Type == "result" })
	if res.Outcome != "success" || res.Action == nil || res.Action.Collection != "businesses" {
		t.Fatalf("upvote result: %+v", res)
	}
	v = f.next(func(o *realtime.Outbound) bool {
		return o.Type == "view" && len(o.View.Items) == 1 && o.View.Items[0].Active
	})
	if n := v.View.Items[0].Fields["upvoteCount"]; n != float64(1) {
		t.Fatalf("upvoteCount after toggle: %v", n)
	}

	f.send(`{"type":"search","target":"businesses","text":"bike"}`)
	v = f.next(func(o *realtime.Outbound) bool { return o.Type == "view" })
	if len(v.View.Items) != 0 || v.View.Total != 1 {
		t.Fatalf("search view: items=%d total=%d", len(v.View.Items), v.View.Total)
	}
}
