package tunnelstate

import "testing"

func TestEncryptionTableHappyPath(t *testing.T) {
	steps := []struct {
		from  State
		event Event
		want  State
	}{
		{Ready, Establish, RSANegotiating},
		{RSANegotiating, RSAPubkeyReceive, AESNegotiating},
		{AESNegotiating, AESKeySend, Authenticating},
		{Authenticating, AuthOK, Transmitting},
		{Transmitting, TransmitOK, Done},
	}
	for _, s := range steps {
		got, ok := EncryptionTable.Next(s.from, s.event)
		if !ok {
			t.Fatalf("Next(%v, %v): no transition found", s.from, s.event)
		}
		if got != s.want {
			t.Errorf("Next(%v, %v) = %v, want %v", s.from, s.event, got, s.want)
		}
	}
}

func TestDecryptionTableHappyPath(t *testing.T) {
	steps := []struct {
		from  State
		event Event
		want  State
	}{
		{Ready, Establish, RSANegotiating},
		{RSANegotiating, RSAPubkeySend, AESNegotiating},
		{AESNegotiating, AESKeyReceive, Authenticating},
		{Authenticating, AuthOK, SOCKS5Handshake},
		{SOCKS5Handshake, SOCKS5HandshakeOK, SOCKS5Request},
		{SOCKS5Request, SOCKS5RequestOK, Transmitting},
		{Transmitting, TransmitOK, Done},
	}
	for _, s := range steps {
		got, ok := DecryptionTable.Next(s.from, s.event)
		if !ok {
			t.Fatalf("Next(%v, %v): no transition found", s.from, s.event)
		}
		if got != s.want {
			t.Errorf("Next(%v, %v) = %v, want %v", s.from, s.event, got, s.want)
		}
	}
}

func TestTransmissionTableHappyPath(t *testing.T) {
	got, ok := TransmissionTable.Next(Ready, Establish)
	if !ok || got != Transmitting {
		t.Fatalf("Next(Ready, Establish) = %v, %v, want Transmitting, true", got, ok)
	}
	got, ok = TransmissionTable.Next(Transmitting, TransmitOK)
	if !ok || got != Done {
		t.Fatalf("Next(Transmitting, TransmitOK) = %v, %v, want Done, true", got, ok)
	}
}

func TestNextMissDoesNotAdvanceState(t *testing.T) {
	got, ok := EncryptionTable.Next(Ready, TransmitOK)
	if ok {
		t.Fatalf("expected no transition for (Ready, TransmitOK)")
	}
	if got != Ready {
		t.Errorf("Next on miss = %v, want the unchanged from-state Ready", got)
	}
}

func TestNextMissOnUnknownFromState(t *testing.T) {
	if _, ok := EncryptionTable.Next(State(999), Establish); ok {
		t.Errorf("expected no transition for an unknown from-state")
	}
}

func TestTableForResolvesAllModes(t *testing.T) {
	if TableFor("encryption") != EncryptionTable {
		t.Errorf("TableFor(encryption) mismatched")
	}
	if TableFor("decryption") != DecryptionTable {
		t.Errorf("TableFor(decryption) mismatched")
	}
	if TableFor("transmission") != TransmissionTable {
		t.Errorf("TableFor(transmission) mismatched")
	}
	if TableFor("bogus") != nil {
		t.Errorf("TableFor(bogus) = non-nil, want nil")
	}
}

func TestStateAndEventStringCoverUnknown(t *testing.T) {
	if State(999).String() != "UNKNOWN" {
		t.Errorf("State(999).String() = %q", State(999).String())
	}
	if Event(999).String() != "UNKNOWN_EVENT" {
		t.Errorf("Event(999).String() = %q", Event(999).String())
	}
}
