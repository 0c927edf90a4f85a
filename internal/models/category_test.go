package models

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		err  error
	}{
		{"crypto", CategoryCrypto, nil},
		{"CRYPTO", CategoryCrypto, nil},
		{" stock ", CategoryStock, nil},
		{"stocks", CategoryStock, nil},
		{"forex", CategoryForex, nil},
		{"bonds", "", ErrInvalidCategory},
		{"", "", ErrInvalidCategory},
	}
	for _, c := range cases {
		got, err := ParseCategory(c.in)
		if !errors.Is(err, c.err) {
			t.Fatalf("ParseCategory(%q) err=%v want=%v", c.in, err, c.err)
		}
		if err == nil && got != c.want {
			t.Fatalf("ParseCategory(%q)=%s want=%s", c.in, got, c.want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	cases := []struct {
		in   string
		want Direction
		err  error
	}{
		{"up", DirectionUp, nil},
		{"UP", DirectionUp, nil},
		{" down ", DirectionDown, nil},
		{"sideways", "", ErrInvalidDirection},
	}
	for _, c := range cases {
		got, err := ParseDirection(c.in)
		if !errors.Is(err, c.err) {
			t.Fatalf("ParseDirection(%q) err=%v want=%v", c.in, err, c.err)
		}
		if err == nil && got != c.want {
			t.Fatalf("ParseDirection(%q)=%s want=%s", c.in, got, c.want)
		}
	}
}

func TestPlayerClone_Independent(t *testing.T) {
	p := NewPlayer("u1", "alice")
	p.History = append(p.History, SettledWagerRecord{Category: CategoryCrypto, PointsDelta: 10})
	p.Subscriptions = append(p.Subscriptions, CategoryForex)

	cp := p.Clone()
	cp.Points = 1
	cp.History[0].PointsDelta = -99
	cp.Subscriptions[0] = CategoryStock

	if p.Points != DefaultStartingPoints {
		t.Fatalf("clone mutated original points: %d", p.Points)
	}
	if p.History[0].PointsDelta != 10 {
		t.Fatalf("clone shares history slice")
	}
	if p.Subscriptions[0] != CategoryForex {
		t.Fatalf("clone shares subscriptions slice")
	}
}
