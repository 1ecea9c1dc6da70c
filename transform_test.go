package vox

import "testing"

func rowsDeterminant(rows [3][3]float64) float64 {
	return rows[0][0]*(rows[1][1]*rows[2][2]-rows[1][2]*rows[2][1]) -
		rows[0][1]*(rows[1][0]*rows[2][2]-rows[1][2]*rows[2][0]) +
		rows[0][2]*(rows[1][0]*rows[2][1]-rows[1][1]*rows[2][0])
}

func allProperRotationCodes(t *testing.T) []byte {
	var codes []byte
	for col0 := 0; col0 < 3; col0++ {
		for col1 := 0; col1 < 3; col1++ {
			if col0 == col1 {
				continue
			}
			for signs := 0; signs < 8; signs++ {
				b := byte(col0) | byte(col1)<<2 | byte(signs)<<4
				rows, err := UnpackRotation(b)
				if err != nil {
					t.Fatalf("UnpackRotation(0x%02x): %v", b, err)
				}
				if rowsDeterminant(rows) > 0 {
					codes = append(codes, b)
				}
			}
		}
	}
	return codes
}

func TestRotationCodecRoundTripProperRotations(t *testing.T) {
	codes := allProperRotationCodes(t)
	if len(codes) != 24 {
		t.Fatalf("expected 24 proper rotation codes, got %d", len(codes))
	}
	for _, b := range codes {
		rows, err := UnpackRotation(b)
		if err != nil {
			t.Fatalf("UnpackRotation(0x%02x): %v", b, err)
		}
		m := FromRotationTranslation(rows, [3]int32{})
		got, err := PackRotation(m)
		if err != nil {
			t.Fatalf("PackRotation round-trip for 0x%02x: %v", b, err)
		}
		if got != b {
			t.Errorf("pack(unpack(0x%02x)) = 0x%02x, want 0x%02x", b, got, b)
		}
	}
}

func TestIdentityRotationByte(t *testing.T) {
	m := Identity()
	b, err := PackRotation(m)
	if err != nil {
		t.Fatalf("PackRotation(Identity()): %v", err)
	}
	if b != identityRotationByte {
		t.Errorf("PackRotation(Identity()) = 0x%02x, want 0x%02x", b, identityRotationByte)
	}
}

func TestPackRotationRejectsNonAxisAligned(t *testing.T) {
	m := Identity()
	m[idx(0, 0)] = 0.5
	m[idx(1, 0)] = 0.5
	if _, err := PackRotation(m); err == nil {
		t.Error("expected PackRotation to reject a non-axis-aligned rotation")
	}
}

func TestUnpackRotationRejectsInvalidByte(t *testing.T) {
	// col0 == col1 (both 0): invalid.
	if _, err := UnpackRotation(0x00); err == nil {
		t.Error("expected UnpackRotation to reject a byte with col0 == col1")
	}
}

func TestMultiplyIdentity(t *testing.T) {
	m := Identity().WithTranslation(3, 4, 5)
	got := Multiply(Identity(), m)
	if got != m {
		t.Errorf("Multiply(Identity(), m) = %v, want %v", got, m)
	}
}

func TestTransformComposition(t *testing.T) {
	a := Identity().WithTranslation(1, 0, 0)
	b := Identity().WithTranslation(0, 2, 0)
	// spec: new_world = local * incoming_world, so a chain Transform(a) ->
	// Group -> Transform(b) -> Shape composes as b * a.
	world := Multiply(b, a)
	got := world.Translation()
	want := [3]int32{1, 2, 0}
	if got != want {
		t.Errorf("composed translation = %v, want %v", got, want)
	}
}

func TestTranslationRoundTrip(t *testing.T) {
	m := Identity().WithTranslation(-7, 12, 0)
	got := m.Translation()
	want := [3]int32{-7, 12, 0}
	if got != want {
		t.Errorf("Translation() = %v, want %v", got, want)
	}
}
