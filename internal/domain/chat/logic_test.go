package chat

import (
	"errors"
	"testing"
)

func TestDirectKeyIsOrderInsensitive(t *testing.T) {
	if DirectKey("b", "a") != DirectKey("a", "b") {
		t.Fatal("expected the same key for both orders")
	}
	if DirectKey("a", "b") != "a:b" {
		t.Fatalf("unexpected key %q", DirectKey("a", "b"))
	}
}

func TestNormalizeCreate(t *testing.T) {
	cases := []struct {
		name   string
		in     CreateInput
		others int
		want   error
	}{
		{"direct", CreateInput{Kind: "direct", MemberIDs: []string{"u2"}}, 1, nil},
		{"direct drops creator and duplicates", CreateInput{Kind: "Direct", MemberIDs: []string{"u1", "u2", " u2 "}}, 1, nil},
		{"direct with self only", CreateInput{Kind: "direct", MemberIDs: []string{"u1"}}, 0, ErrDirectMembers},
		{"direct with two others", CreateInput{Kind: "direct", MemberIDs: []string{"u2", "u3"}}, 0, ErrDirectMembers},
		{"group", CreateInput{Kind: "group", Name: "Planning", MemberIDs: []string{"u2", "u3"}}, 2, nil},
		{"group without name", CreateInput{Kind: "group", MemberIDs: []string{"u2"}}, 0, ErrGroupName},
		{"group without members", CreateInput{Kind: "group", Name: "x"}, 0, ErrNoMembers},
		{"unknown kind", CreateInput{Kind: "channel"}, 0, ErrInvalidKind},
	}
	for _, tc := range cases {
		_, others, err := normalizeCreate("u1", tc.in)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if err == nil && len(others) != tc.others {
			t.Fatalf("%s: expected %d other members, got %v", tc.name, tc.others, others)
		}
	}
}

func TestHubPublishAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("u1", 1)
	b := hub.Subscribe("u1", 1)
	c := hub.Subscribe("u2", 1)

	if n := hub.Publish([]string{"u1"}, Event{Type: EventMessageNew, ConversationID: "c1"}); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if evt := <-a; evt.ConversationID != "c1" {
		t.Fatalf("unexpected event %+v", evt)
	}
	select {
	case evt := <-c:
		t.Fatalf("u2 should not receive %+v", evt)
	default:
	}

	if n := hub.Publish([]string{"u1"}, Event{Type: EventMessageNew}); n != 1 {
		t.Fatalf("full buffer should be skipped, got %d deliveries", n)
	}

	hub.Unsubscribe("u1", b)
	if _, ok := <-b; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
	hub.Unsubscribe("u1", b)
	if hub.Connections("u1") != 1 {
		t.Fatalf("expected one remaining connection, got %d", hub.Connections("u1"))
	}
}
