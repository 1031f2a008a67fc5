package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClaim_SetDestinations(t *testing.T) {
	tests := []struct {
		name    string
		kinds   []TokenKind
		wantErr bool
		want    []string
	}{
		{
			name:  "Single",
			kinds: []TokenKind{KindAccessToken},
			want:  []string{"access_token"},
		},
		{
			name:  "Deduplicated Case Insensitive",
			kinds: []TokenKind{KindAccessToken, TokenKind("ACCESS_TOKEN"), KindIdentityToken},
			want:  []string{"access_token", "id_token"},
		},
		{
			name:    "Space Fails",
			kinds:   []TokenKind{TokenKind("access token")},
			wantErr: true,
		},
		{
			name:  "Empty Removes",
			kinds: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := &Claim{Type: "email", Value: "bob@contoso.com"}
			if err := claim.SetDestinations(KindIdentityToken); err != nil {
				t.Fatalf("seeding destinations: %v", err)
			}

			err := claim.SetDestinations(tt.kinds...)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("SetDestinations() error = %v, want ErrInvalidArgument", err)
				}
				if diff := cmp.Diff([]string{"id_token"}, claim.Destinations()); diff != "" {
					t.Errorf("destinations mutated on failed set (-want +got):\n%s", diff)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetDestinations() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, claim.Destinations()); diff != "" {
				t.Errorf("Destinations() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClaim_HasDestination(t *testing.T) {
	claim := &Claim{Type: "email", Value: "bob@contoso.com"}
	if err := claim.SetDestinations(KindAccessToken, KindIdentityToken); err != nil {
		t.Fatal(err)
	}

	if !claim.HasDestination(KindAccessToken) {
		t.Errorf("HasDestination(access_token) = false")
	}
	if !claim.HasDestination(TokenKind("ID_TOKEN")) {
		t.Errorf("HasDestination(ID_TOKEN) = false, membership must be case-insensitive")
	}
	if claim.HasDestination(KindRefreshToken) {
		t.Errorf("HasDestination(refresh_token) = true")
	}

	// no declared destination means excluded everywhere
	bare := &Claim{Type: "name", Value: "Bob"}
	for _, kind := range Kinds {
		if bare.HasDestination(kind) {
			t.Errorf("HasDestination(%s) = true for claim without destinations", kind)
		}
	}
}
