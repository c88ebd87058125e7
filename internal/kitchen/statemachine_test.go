package kitchen

import (
	"errors"
	"testing"

	"github.com/comanda-pos/api/internal/enum"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		current string
		want    string
		wantErr error
	}{
		{enum.ItemStateQueued, enum.ItemStatePreparing, nil},
		{enum.ItemStatePreparing, enum.ItemStateReady, nil},
		{enum.ItemStateReady, enum.ItemStateServed, nil},
		{enum.ItemStateServed, "", ErrNoValidTransition},
		{enum.ItemStateCancelled, "", ErrNoValidTransition},
		{"GARBAGE", "", ErrNoValidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			got, err := NextState(tt.current)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NextState(%s) error = %v, want %v", tt.current, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NextState(%s) = %s, want %s", tt.current, got, tt.want)
			}
		})
	}
}

func TestCancelState(t *testing.T) {
	tests := []struct {
		current string
		want    string
		wantErr error
	}{
		{enum.ItemStateQueued, enum.ItemStateCancelled, nil},
		{enum.ItemStatePreparing, enum.ItemStateCancelled, nil},
		{enum.ItemStateReady, enum.ItemStateCancelled, nil},
		{enum.ItemStateServed, "", ErrAlreadyTerminal},
		{enum.ItemStateCancelled, "", ErrAlreadyTerminal},
		{"GARBAGE", "", ErrNoValidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			got, err := CancelState(tt.current)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CancelState(%s) error = %v, want %v", tt.current, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CancelState(%s) = %s, want %s", tt.current, got, tt.want)
			}
		})
	}
}
