package session

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeLayoutMatchesRevokeScriptOffsets(t *testing.T) {
	rec := &Record{
		UserID:    "u-1",
		IssuedAt:  0x0102030405060708,
		ExpiresAt: 0x1112131415161718,
		Revoked:   true,
	}

	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []byte{
		1, 1,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
		3, 'u', '-', '1',
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("unexpected layout\n got %v\nwant %v", data, want)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *got != *rec {
		t.Fatalf("decoded %+v, want %+v", got, rec)
	}
}

func TestEncodeRejectsBadUserID(t *testing.T) {
	if _, err := Encode(&Record{}); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID for empty user, got %v", err)
	}
	if _, err := Encode(&Record{UserID: string(make([]byte, 256))}); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID for long user, got %v", err)
	}
}

func TestDecodeRejectsCorruptPayloads(t *testing.T) {
	valid, err := Encode(&Record{UserID: "u", IssuedAt: 1, ExpiresAt: 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	badVersion := bytes.Clone(valid)
	badVersion[0] = 9
	badFlags := bytes.Clone(valid)
	badFlags[1] = 0x80
	zeroUser := bytes.Clone(valid)
	zeroUser[18] = 0

	cases := map[string][]byte{
		"empty":        {},
		"short":        valid[:10],
		"bad version":  badVersion,
		"bad flags":    badFlags,
		"zero user":    zeroUser,
		"truncated id": valid[:len(valid)-1],
		"trailing":     append(bytes.Clone(valid), 'x'),
	}
	for name, data := range cases {
		if _, err := Decode(data); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

// FuzzRecordDecode checks the decoder never panics and that anything it
// accepts survives a re-encode unchanged.
func FuzzRecordDecode(f *testing.F) {
	seed, err := Encode(&Record{UserID: "user1", IssuedAt: 1700000000000, ExpiresAt: 1700086400000})
	if err == nil {
		f.Add(seed)
		f.Add(seed[:10])
	}
	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add([]byte{255, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := Decode(data)
		if err != nil {
			return
		}
		again, err := Encode(rec)
		if err != nil {
			t.Fatalf("re-encode of decoded record failed: %v", err)
		}
		if !bytes.Equal(again, data) {
			t.Fatalf("round trip mismatch: %v != %v", again, data)
		}
	})
}
