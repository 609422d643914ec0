// Package tunnelstate holds the declarative transition table driving a
// Tunnel through its per-mode lifecycle. It is pure data: no I/O, no
// locking, no logging. infrastructure/statemachine wraps it with dispatch
// and logging.
package tunnelstate

// State is a node in the per-mode transition table.
type State int

const (
	Ready State = iota
	RSANegotiating
	AESNegotiating
	Authenticating
	SOCKS5Handshake
	SOCKS5Request
	Transmitting
	Done
	Fail
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case RSANegotiating:
		return "RSA_NEG"
	case AESNegotiating:
		return "AES_NEG"
	case Authenticating:
		return "AUTH"
	case SOCKS5Handshake:
		return "SOCKS5_HANDSHAKE"
	case SOCKS5Request:
		return "SOCKS5_REQUEST"
	case Transmitting:
		return "TRANSMIT"
	case Done:
		return "DONE"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Event is fired by a component driving the Tunnel through its chain.
type Event int

const (
	Establish Event = iota
	RSAPubkeyReceive
	RSAPubkeySend
	RSANegotiatingFail
	AESKeySend
	AESKeyReceive
	AESNegotiatingFail
	AuthOK
	AuthFail
	SOCKS5HandshakeOK
	SOCKS5HandshakeFail
	SOCKS5RequestOK
	SOCKS5RequestFail
	TransmitOK
	TransmitFail
)

func (e Event) String() string {
	switch e {
	case Establish:
		return "ESTABLISH"
	case RSAPubkeyReceive:
		return "RSA_PUBKEY_RECEIVE"
	case RSAPubkeySend:
		return "RSA_PUBKEY_SEND"
	case RSANegotiatingFail:
		return "RSA_NEGOTIATING_FAIL"
	case AESKeySend:
		return "AES_KEY_SEND"
	case AESKeyReceive:
		return "AES_KEY_RECEIVE"
	case AESNegotiatingFail:
		return "AES_NEGOTIATING_FAIL"
	case AuthOK:
		return "AUTH_OK"
	case AuthFail:
		return "AUTH_FAIL"
	case SOCKS5HandshakeOK:
		return "SOCKS5_HANDSHAKE_OK"
	case SOCKS5HandshakeFail:
		return "SOCKS5_HANDSHAKE_FAIL"
	case SOCKS5RequestOK:
		return "SOCKS5_REQUEST_OK"
	case SOCKS5RequestFail:
		return "SOCKS5_REQUEST_FAIL"
	case TransmitOK:
		return "TRANSMIT_OK"
	case TransmitFail:
		return "TRANSMIT_FAIL"
	default:
		return "UNKNOWN_EVENT"
	}
}

// transition is one row of a table: in State, on Event, go to State.
type transition struct {
	from  State
	event Event
	to    State
}

// Table is a static (from, event) -> to lookup. It never mutates after
// construction, so it can be shared by every Tunnel in a given mode.
type Table struct {
	rows map[State]map[Event]State
}

func newTable(transitions []transition) *Table {
	t := &Table{rows: make(map[State]map[Event]State, len(transitions))}
	for _, tr := range transitions {
		if t.rows[tr.from] == nil {
			t.rows[tr.from] = make(map[Event]State)
		}
		t.rows[tr.from][tr.event] = tr.to
	}
	return t
}

// Next looks up (from, event). ok is false if the pair is undefined; per
// spec.md §4.3 callers must not advance state on a miss.
func (t *Table) Next(from State, event Event) (to State, ok bool) {
	byEvent, found := t.rows[from]
	if !found {
		return from, false
	}
	to, ok = byEvent[event]
	if !ok {
		return from, false
	}
	return to, true
}

// EncryptionTable is the per-mode chain for the encryption-node flow.
var EncryptionTable = newTable([]transition{
	{Ready, Establish, RSANegotiating},
	{RSANegotiating, RSAPubkeyReceive, AESNegotiating},
	{RSANegotiating, RSANegotiatingFail, Fail},
	{AESNegotiating, AESKeySend, Authenticating},
	{AESNegotiating, AESNegotiatingFail, Fail},
	{Authenticating, AuthOK, Transmitting},
	{Authenticating, AuthFail, Fail},
	{Transmitting, TransmitOK, Done},
	{Transmitting, TransmitFail, Fail},
})

// DecryptionTable is the per-mode chain for the decryption-node flow.
var DecryptionTable = newTable([]transition{
	{Ready, Establish, RSANegotiating},
	{RSANegotiating, RSAPubkeySend, AESNegotiating},
	{RSANegotiating, RSANegotiatingFail, Fail},
	{AESNegotiating, AESKeyReceive, Authenticating},
	{AESNegotiating, AESNegotiatingFail, Fail},
	{Authenticating, AuthOK, SOCKS5Handshake},
	{Authenticating, AuthFail, Fail},
	{SOCKS5Handshake, SOCKS5HandshakeOK, SOCKS5Request},
	{SOCKS5Handshake, SOCKS5HandshakeFail, Fail},
	{SOCKS5Request, SOCKS5RequestOK, Transmitting},
	{SOCKS5Request, SOCKS5RequestFail, Fail},
	{Transmitting, TransmitOK, Done},
	{Transmitting, TransmitFail, Fail},
})

// TransmissionTable is the per-mode chain for the plain-relay flow.
var TransmissionTable = newTable([]transition{
	{Ready, Establish, Transmitting},
	{Transmitting, TransmitOK, Done},
	{Transmitting, TransmitFail, Fail},
})

// TableFor returns the transition table for a mode name ("encryption",
// "decryption", "transmission"), or nil for any other name. It takes the
// name string rather than a domain/mode.Mode. The server flows use the
// per-mode tables directly and do not call it.
func TableFor(name string) *Table {
	switch name {
	case "encryption":
		return EncryptionTable
	case "decryption":
		return DecryptionTable
	case "transmission":
		return TransmissionTable
	default:
		return nil
	}
}
