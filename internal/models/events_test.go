package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestRoomID_AcceptsStringOrNumber(t *testing.T) {
	cases := []struct {
		in      string
		want    RoomID
		numeric bool
	}{
		{`{"type":"join_room","roomId":"12"}`, "12", true},
		{`{"type":"join_room","roomId":12}`, "12", true},
		{`{"type":"join_room","roomId":"lobby"}`, "lobby", false},
		{`{"type":"join_room"}`, "", false},
	}
	for _, tc := range cases {
		var msg Inbound
		if err := json.Unmarshal([]byte(tc.in), &msg); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if msg.RoomID != tc.want {
			t.Errorf("%s: roomId = %q, want %q", tc.in, msg.RoomID, tc.want)
		}
		if _, ok := msg.RoomID.Numeric(); ok != tc.numeric {
			t.Errorf("%s: numeric = %v", tc.in, ok)
		}
	}
}

func TestNewError(t *testing.T) {
	raw, err := json.Marshal(NewError())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"type":"error","message":"invalid message"}` {
		t.Errorf("error event = %s", raw)
	}
}
